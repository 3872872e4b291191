package factors

import (
	"math"

	"github.com/garplab/garpscan/internal/data"
)

// FCFResult holds free cash flow yield relative to market cap.
type FCFResult struct {
	Yield     *float64 `json:"yield"`
	FCF       float64  `json:"fcf_raw,omitempty"`
	MarketCap float64  `json:"market_cap,omitempty"`
	Details   string   `json:"details,omitempty"`
}

// freeCashFlow reads the reported FCF line or derives it as operating
// cash flow minus the magnitude of capital expenditure.
func freeCashFlow(s *data.StatementSet) (float64, bool) {
	if s.Has(s.CashFlow, data.ItemFreeCashFlow) {
		return s.Value(s.CashFlow, data.ItemFreeCashFlow, 0), true
	}
	if !s.Has(s.CashFlow, data.ItemOperatingCashFlow) {
		return 0, false
	}
	ocf := s.Value(s.CashFlow, data.ItemOperatingCashFlow, 0)
	capex := math.Abs(s.Value(s.CashFlow, data.ItemCapitalExpenditure, 0))
	return ocf - capex, true
}

// FCFYield computes FCF / market cap. Unknown share count or a zero
// price makes the yield undeterminable.
func FCFYield(s *data.StatementSet, currentPrice float64) FCFResult {
	if !s.HasData() {
		return FCFResult{Details: "no financial statements"}
	}

	fcf, ok := freeCashFlow(s)
	if !ok {
		return FCFResult{Details: "cannot determine free cash flow"}
	}

	shares, _ := shareCounts(s)
	if shares == 0 || currentPrice == 0 {
		return FCFResult{Details: "cannot determine market cap"}
	}

	marketCap := shares * currentPrice
	y := fcf / marketCap
	return FCFResult{Yield: &y, FCF: fcf, MarketCap: marketCap}
}
