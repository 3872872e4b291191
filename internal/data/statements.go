package data

import (
	"github.com/rs/zerolog/log"
)

// Common statement line items, named after the provider's normalized schema.
const (
	ItemNetIncome          = "Net Income"
	ItemOperatingCashFlow  = "Operating Cash Flow"
	ItemFreeCashFlow       = "Free Cash Flow"
	ItemCapitalExpenditure = "Capital Expenditure"
	ItemTotalAssets        = "Total Assets"
	ItemTotalLiabilities   = "Total Liabilities Net Minority Interest"
	ItemTotalDebt          = "Total Debt"
	ItemLongTermDebt       = "Long Term Debt"
	ItemCurrentAssets      = "Current Assets"
	ItemCurrentLiabilities = "Current Liabilities"
	ItemWorkingCapital     = "Working Capital"
	ItemRetainedEarnings   = "Retained Earnings"
	ItemOrdinaryShares     = "Ordinary Shares Number"
	ItemSharesIssued       = "Share Issued"
	ItemStockholdersEquity = "Stockholders Equity"
	ItemTotalRevenue       = "Total Revenue"
	ItemGrossProfit        = "Gross Profit"
	ItemEBIT               = "EBIT"
)

// Table is one financial statement as a mapping from line-item name to an
// ordered sequence of period values, most recent first.
type Table struct {
	Items map[string][]float64 `json:"items"`
}

// NewTable creates an empty statement table.
func NewTable() Table {
	return Table{Items: make(map[string][]float64)}
}

// Periods returns the number of periods available, taken as the longest
// line-item series present.
func (t Table) Periods() int {
	max := 0
	for _, vals := range t.Items {
		if len(vals) > max {
			max = len(vals)
		}
	}
	return max
}

// Empty reports whether the table carries no line items at all.
func (t Table) Empty() bool {
	return len(t.Items) == 0
}

// StatementSet is the per-symbol bundle of the three aligned statements.
// Fetched fresh per analysis, never mutated afterwards.
type StatementSet struct {
	Symbol       string `json:"symbol"`
	BalanceSheet Table  `json:"balance_sheet"`
	Income       Table  `json:"income"`
	CashFlow     Table  `json:"cash_flow"`

	caveats []string
}

// HasData reports whether all three statements carry at least one period.
func (s *StatementSet) HasData() bool {
	return !s.BalanceSheet.Empty() && !s.Income.Empty() && !s.CashFlow.Empty()
}

// MinPeriods returns the smallest period count across the three statements.
func (s *StatementSet) MinPeriods() int {
	min := s.BalanceSheet.Periods()
	if p := s.Income.Periods(); p < min {
		min = p
	}
	if p := s.CashFlow.Periods(); p < min {
		min = p
	}
	return min
}

// Value returns the line item's value at the given period index (0 = most
// recent). An absent line item or period yields 0.0 for ratio safety; the
// substitution is recorded as a caveat and logged, never hidden.
func (s *StatementSet) Value(t Table, item string, period int) float64 {
	vals, ok := t.Items[item]
	if !ok || period >= len(vals) {
		s.addCaveat(item)
		return 0.0
	}
	return vals[period]
}

// Has reports whether the table carries the line item at all.
func (s *StatementSet) Has(t Table, item string) bool {
	vals, ok := t.Items[item]
	return ok && len(vals) > 0
}

// Caveats lists every line item that was substituted with 0.0 during this
// set's lifetime, in first-hit order.
func (s *StatementSet) Caveats() []string {
	out := make([]string, len(s.caveats))
	copy(out, s.caveats)
	return out
}

func (s *StatementSet) addCaveat(item string) {
	for _, c := range s.caveats {
		if c == item {
			return
		}
	}
	s.caveats = append(s.caveats, item)
	log.Warn().Str("symbol", s.Symbol).Str("item", item).
		Msg("missing statement line item, substituting 0.0")
}
