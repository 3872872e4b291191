package factors

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/sector"
)

// Details sentinels for the negative-FCF paths.
const (
	DetailsGrahamFallback = "Graham Number (Negative FCF Fallback)"
	DetailsDCFFailed      = "Negative FCF & Graham Failed"
)

// DCFResult holds the intrinsic value estimate and the rates that
// produced it. Rates are 0.0 sentinels on the Graham fallback path.
type DCFResult struct {
	IntrinsicValue   *float64 `json:"intrinsic_value"`
	DiscountRate     float64  `json:"discount_rate"`
	GrowthRate       float64  `json:"growth_rate"`
	SentimentPenalty float64  `json:"sentiment_penalty"`
	Details          string   `json:"details"`
}

// defaultGrowth is assumed when the provider reports no revenue growth.
const defaultGrowth = 0.05

// SentimentAdjustedDCF projects free cash flow over a fixed horizon with
// a perpetuity terminal value, discounting at a base rate plus a penalty
// when the market is overheated. When FCF is negative the model falls
// back to the Graham number sqrt(22.5 * EPS * BVPS).
func SentimentAdjustedDCF(s *data.StatementSet, profile *data.Profile, sentimentZ float64, cfg config.DCFConfig) DCFResult {
	if !s.HasData() {
		return DCFResult{Details: "no financial statements"}
	}

	fcf, ok := freeCashFlow(s)
	if !ok {
		return DCFResult{Details: "cannot determine free cash flow"}
	}

	shares := profile.SharesOutstanding
	if shares == 0 {
		shares, _ = shareCounts(s)
	}
	if shares == 0 {
		return DCFResult{Details: "no share count"}
	}

	if fcf < 0 {
		return grahamFallback(s, shares, fcf)
	}

	growth := defaultGrowth
	if profile.RevenueGrowth != nil {
		growth = *profile.RevenueGrowth
	}
	growth = math.Min(growth, sector.GrowthCeiling(profile.Sector))
	growth = math.Max(growth, cfg.GrowthFloor)

	penalty := 0.0
	if sentimentZ > 0 {
		penalty = cfg.SentimentScale * math.Tanh(sentimentZ)
	}
	// The terminal spread (discount - terminal growth) is floored at one
	// point so the perpetuity never blows up.
	discount := cfg.BaseDiscountRate + penalty
	if discount < cfg.TerminalGrowth+0.01 {
		discount = cfg.TerminalGrowth + 0.01
	}

	// Stage 1: explicit projection.
	pv := 0.0
	projected := fcf
	for year := 1; year <= cfg.ProjectionYears; year++ {
		projected *= 1 + growth
		pv += projected / math.Pow(1+discount, float64(year))
	}

	// Stage 2: perpetuity terminal value.
	terminal := projected * (1 + cfg.TerminalGrowth) / (discount - cfg.TerminalGrowth)
	pv += terminal / math.Pow(1+discount, float64(cfg.ProjectionYears))

	intrinsic := pv / shares
	return DCFResult{
		IntrinsicValue:   &intrinsic,
		DiscountRate:     discount,
		GrowthRate:       growth,
		SentimentPenalty: penalty,
		Details:          fmt.Sprintf("DCF (g=%.1f%%, r=%.1f%%)", growth*100, discount*100),
	}
}

func grahamFallback(s *data.StatementSet, shares, fcf float64) DCFResult {
	netIncome := s.Value(s.Income, data.ItemNetIncome, 0)
	equity := s.Value(s.BalanceSheet, data.ItemStockholdersEquity, 0)
	if equity == 0 {
		equity = s.Value(s.BalanceSheet, data.ItemTotalAssets, 0) -
			s.Value(s.BalanceSheet, data.ItemTotalLiabilities, 0)
	}

	if netIncome <= 0 || equity <= 0 {
		return DCFResult{Details: DetailsDCFFailed}
	}

	eps := netIncome / shares
	bvps := equity / shares
	graham := math.Sqrt(22.5 * eps * bvps)
	log.Info().Str("symbol", s.Symbol).Float64("fcf", fcf).Float64("graham", graham).
		Msg("negative FCF, using Graham number fallback")

	return DCFResult{
		IntrinsicValue: &graham,
		Details:        DetailsGrahamFallback,
	}
}
