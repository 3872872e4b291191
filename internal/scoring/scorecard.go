// Package scoring implements the GARP discipline: four independent
// factor checks, a base three-state classification, and an ordered list
// of override rules that can only move the verdict toward caution, with
// the single documented quality-rescue exception.
package scoring

import (
	"fmt"
	"time"

	"github.com/garplab/garpscan/internal/factors"
)

// Status is the terminal classification of a score card.
type Status string

const (
	StatusPass      Status = "PASS"
	StatusWatchlist Status = "WATCHLIST"
	StatusReject    Status = "REJECT"
)

// ParseStatus validates a raw status string. Anything outside the three
// states is a construction error, not a silent default.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPass, StatusWatchlist, StatusReject:
		return Status(raw), nil
	}
	return "", fmt.Errorf("invalid overall status %q", raw)
}

// SolvencyResult reports balance-sheet safety.
type SolvencyResult struct {
	DebtToEquity *float64 `json:"debt_to_equity"` // percent, provider convention
	CurrentRatio *float64 `json:"current_ratio"`
	Tags         []string `json:"tags"`
	IsPassing    bool     `json:"is_passing"`

	redFlags []string
}

// QualityResult reports profitability quality.
type QualityResult struct {
	ROE         *float64 `json:"roe"`
	GrossMargin *float64 `json:"gross_margin"`
	Tags        []string `json:"tags"`
	IsPassing   bool     `json:"is_passing"`

	redFlags []string
}

// ValuationResult reports price reasonableness. The PEG ceiling is the
// dynamic threshold actually applied for this run.
type ValuationResult struct {
	TrailingPE     *float64 `json:"pe_ratio"`
	ForwardPE      *float64 `json:"forward_pe"`
	PEG            *float64 `json:"peg_ratio"`
	PEGCeiling     float64  `json:"peg_ceiling"`
	SectorPEZScore *float64 `json:"sector_pe_z,omitempty"`
	TargetPrice    *float64 `json:"fair_value"`
	MoSTarget      *float64 `json:"margin_of_safety_target,omitempty"`
	MoSIntrinsic   *float64 `json:"margin_of_safety_dcf,omitempty"`
	Tags           []string `json:"tags"`
	IsPassing      bool     `json:"is_passing"`

	redFlags []string
}

// TechnicalResult reports momentum posture.
type TechnicalResult struct {
	RSI         *float64 `json:"rsi"`
	TrendStatus string   `json:"trend_status"` // Bullish / Bearish
	Tags        []string `json:"tags"`
	IsPassing   bool     `json:"is_passing"`

	redFlags []string
}

// Prediction carries the forward-looking overlay. Returns are percent.
type Prediction struct {
	Return1W   *float64 `json:"predicted_return_1w,omitempty"`
	Return1M   *float64 `json:"predicted_return_1m,omitempty"`
	Confidence *float64 `json:"confidence_score,omitempty"`
	VolLow     *float64 `json:"volatility_low,omitempty"`  // 5th pct price, 21 days out
	VolHigh    *float64 `json:"volatility_high,omitempty"` // 95th pct price
	SampleSize int      `json:"sample_size,omitempty"`
	Pool       string   `json:"pool,omitempty"`
}

// ScoreCard is the central output record of one analysis. The engine
// owns and mutates it during the pipeline; callers treat it as
// immutable once returned.
type ScoreCard struct {
	Symbol      string          `json:"symbol"`
	Price       float64         `json:"price"`
	Strategy    string          `json:"strategy_type"`
	Solvency    SolvencyResult  `json:"solvency_check"`
	Quality     QualityResult   `json:"quality_check"`
	Valuation   ValuationResult `json:"valuation_check"`
	Technical   TechnicalResult `json:"technical_setup"`
	Metrics     factors.Metrics `json:"advanced_metrics"`
	RedFlags    []string        `json:"red_flags"`
	Status      Status          `json:"overall_status"`
	Reason      string          `json:"reason"`
	Prediction  Prediction      `json:"prediction"`
	GeneratedAt time.Time       `json:"generated_at"`

	bankruptcyVeto bool
}

// NewScoreCard creates the card the checks will fill in.
func NewScoreCard(symbol string, price float64) *ScoreCard {
	return &ScoreCard{
		Symbol:   symbol,
		Price:    price,
		Strategy: "GARP",
		RedFlags: []string{},
	}
}

// setVerdict records the status with its audit reason.
func (c *ScoreCard) setVerdict(s Status, reason string) {
	c.Status = s
	c.Reason = reason
}

// collectRedFlags merges every check's negative tags into the card-level
// red flag list, preserving check order.
func (c *ScoreCard) collectRedFlags() {
	for _, flags := range [][]string{
		c.Solvency.redFlags, c.Quality.redFlags, c.Valuation.redFlags, c.Technical.redFlags,
	} {
		c.RedFlags = append(c.RedFlags, flags...)
	}
}

// flag appends a card-level red flag, deduplicated.
func (c *ScoreCard) flag(msg string) {
	for _, f := range c.RedFlags {
		if f == msg {
			return
		}
	}
	c.RedFlags = append(c.RedFlags, msg)
}
