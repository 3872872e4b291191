package factors

import (
	"github.com/garplab/garpscan/internal/data"
)

// Altman Z-Score classification bands.
const (
	AltmanSafe     = "Safe"
	AltmanGrey     = "Grey Zone"
	AltmanDistress = "Distress"
)

// AltmanComponents are the five weighted ratios of the Z-Score.
type AltmanComponents struct {
	Liquidity          float64 `json:"liquidity"`           // working capital / total assets
	AccumulatedEarning float64 `json:"accumulated_earning"` // retained earnings / total assets
	EarningsPower      float64 `json:"earnings_power"`      // EBIT / total assets
	MarketLeverage     float64 `json:"market_leverage"`     // market cap / total liabilities
	AssetTurnover      float64 `json:"asset_turnover"`      // revenue / total assets
}

// AltmanResult holds the bankruptcy-risk score and its classification.
type AltmanResult struct {
	Score      *float64         `json:"score"`
	Status     string           `json:"status,omitempty"`
	Components AltmanComponents `json:"components,omitempty"`
	Details    string           `json:"details,omitempty"`
}

// AltmanZ computes the original public-manufacturer Z-Score:
// Z = 1.2A + 1.4B + 3.3C + 0.6D + 1.0E.
func AltmanZ(s *data.StatementSet, currentPrice float64) AltmanResult {
	if !s.HasData() {
		return AltmanResult{Details: "no financial statements"}
	}

	ta := s.Value(s.BalanceSheet, data.ItemTotalAssets, 0)
	if ta == 0 {
		return AltmanResult{Details: "total assets is 0"}
	}

	tl := s.Value(s.BalanceSheet, data.ItemTotalLiabilities, 0)
	if tl == 0 {
		tl = s.Value(s.BalanceSheet, data.ItemTotalDebt, 0)
	}

	wc := s.Value(s.BalanceSheet, data.ItemWorkingCapital, 0)
	if wc == 0 {
		wc = s.Value(s.BalanceSheet, data.ItemCurrentAssets, 0) -
			s.Value(s.BalanceSheet, data.ItemCurrentLiabilities, 0)
	}

	shares, _ := shareCounts(s)
	marketCap := currentPrice * shares

	comp := AltmanComponents{
		Liquidity:          wc / ta,
		AccumulatedEarning: s.Value(s.BalanceSheet, data.ItemRetainedEarnings, 0) / ta,
		EarningsPower:      s.Value(s.Income, data.ItemEBIT, 0) / ta,
		AssetTurnover:      s.Value(s.Income, data.ItemTotalRevenue, 0) / ta,
	}
	if tl != 0 {
		comp.MarketLeverage = marketCap / tl
	}

	z := 1.2*comp.Liquidity + 1.4*comp.AccumulatedEarning + 3.3*comp.EarningsPower +
		0.6*comp.MarketLeverage + 1.0*comp.AssetTurnover

	status := AltmanDistress
	switch {
	case z > 3.0:
		status = AltmanSafe
	case z > 1.8:
		status = AltmanGrey
	}

	return AltmanResult{Score: &z, Status: status, Components: comp}
}
