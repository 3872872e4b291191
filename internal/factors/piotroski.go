// Package factors computes the advanced fundamental metrics layered on
// top of the base GARP checks: Piotroski F-Score, Altman Z-Score, free
// cash flow yield, and a sentiment-adjusted two-stage DCF. Each metric
// fails independently; a nil score means "could not be computed", never
// zero.
package factors

import (
	"github.com/garplab/garpscan/internal/data"
)

// Criterion is one of the nine Piotroski tests.
type Criterion struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// PiotroskiResult holds the F-Score (0..9) with its per-criterion detail.
type PiotroskiResult struct {
	Score    *int        `json:"score"`
	MaxScore int         `json:"max_score"`
	Criteria []Criterion `json:"criteria,omitempty"`
	Details  string      `json:"details,omitempty"`
}

// Piotroski computes the F-Score from two consecutive annual periods.
// Fewer than two periods on any statement yields a nil score.
func Piotroski(s *data.StatementSet) PiotroskiResult {
	res := PiotroskiResult{MaxScore: 9}
	if !s.HasData() || s.MinPeriods() < 2 {
		res.Details = "insufficient historical data (need 2 periods)"
		return res
	}

	score := 0
	add := func(name string, passed bool) {
		if passed {
			score++
		}
		res.Criteria = append(res.Criteria, Criterion{Name: name, Passed: passed})
	}

	// Profitability.
	niCurr := s.Value(s.Income, data.ItemNetIncome, 0)
	add("Positive Net Income", niCurr > 0)

	cfoCurr := s.Value(s.CashFlow, data.ItemOperatingCashFlow, 0)
	add("Positive Operating Cash Flow", cfoCurr > 0)

	taCurr := s.Value(s.BalanceSheet, data.ItemTotalAssets, 0)
	taPrior := s.Value(s.BalanceSheet, data.ItemTotalAssets, 1)
	niPrior := s.Value(s.Income, data.ItemNetIncome, 1)
	add("ROA Improved", ratio(niCurr, taCurr) > ratio(niPrior, taPrior))

	add("CFO Exceeds Net Income", cfoCurr > niCurr)

	// Leverage, liquidity, dilution.
	ltdCurr := s.Value(s.BalanceSheet, data.ItemLongTermDebt, 0)
	ltdPrior := s.Value(s.BalanceSheet, data.ItemLongTermDebt, 1)
	add("Lower or Stable Leverage", ltdCurr <= ltdPrior)

	crCurr := ratio(s.Value(s.BalanceSheet, data.ItemCurrentAssets, 0), s.Value(s.BalanceSheet, data.ItemCurrentLiabilities, 0))
	crPrior := ratio(s.Value(s.BalanceSheet, data.ItemCurrentAssets, 1), s.Value(s.BalanceSheet, data.ItemCurrentLiabilities, 1))
	add("Current Ratio Improved", crCurr > crPrior)

	sharesCurr, sharesPrior := shareCounts(s)
	add("No Dilution", sharesCurr <= sharesPrior)

	// Operating efficiency.
	revCurr := s.Value(s.Income, data.ItemTotalRevenue, 0)
	revPrior := s.Value(s.Income, data.ItemTotalRevenue, 1)
	gmCurr := ratio(s.Value(s.Income, data.ItemGrossProfit, 0), revCurr)
	gmPrior := ratio(s.Value(s.Income, data.ItemGrossProfit, 1), revPrior)
	add("Gross Margin Improved", gmCurr > gmPrior)

	add("Asset Turnover Improved", ratio(revCurr, taCurr) > ratio(revPrior, taPrior))

	res.Score = &score
	return res
}

// shareCounts reads outstanding shares for the two most recent periods,
// falling back from ordinary shares to shares issued when absent.
func shareCounts(s *data.StatementSet) (curr, prior float64) {
	curr = s.Value(s.BalanceSheet, data.ItemOrdinaryShares, 0)
	prior = s.Value(s.BalanceSheet, data.ItemOrdinaryShares, 1)
	if curr == 0 {
		curr = s.Value(s.BalanceSheet, data.ItemSharesIssued, 0)
		prior = s.Value(s.BalanceSheet, data.ItemSharesIssued, 1)
	}
	return curr, prior
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
