package data

import (
	"context"
)

// Profile carries per-symbol metadata and consensus metrics. Nil pointer
// fields mean the provider had no figure; downstream checks tag them as
// unknown rather than treating them as zero.
type Profile struct {
	Symbol            string   `json:"symbol"`
	Sector            string   `json:"sector"`
	SharesOutstanding float64  `json:"shares_outstanding"`
	RevenueGrowth     *float64 `json:"revenue_growth,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"` // percent, e.g. 150 = 1.5x
	CurrentRatio      *float64 `json:"current_ratio,omitempty"`
	ReturnOnEquity    *float64 `json:"return_on_equity,omitempty"` // fraction
	GrossMargin       *float64 `json:"gross_margin,omitempty"`     // fraction
	TrailingPE        *float64 `json:"trailing_pe,omitempty"`
	ForwardPE         *float64 `json:"forward_pe,omitempty"`
	PEGRatio          *float64 `json:"peg_ratio,omitempty"`
	TargetMeanPrice   *float64 `json:"target_mean_price,omitempty"`
}

// Provider is the financial statement / price / profile accessor boundary.
// Implementations return explicit empty results for "no data" so factor
// computations can degrade gracefully; errors are reserved for transport
// failures.
type Provider interface {
	// Financials fetches the three normalized statements, most recent
	// period first in every line-item series.
	Financials(ctx context.Context, symbol string) (*StatementSet, error)

	// PriceHistory fetches daily OHLCV bars covering the given lookback
	// period, e.g. "2y" or "5y", oldest first.
	PriceHistory(ctx context.Context, symbol string, period string) (Series, error)

	// Profile fetches sector, share count and consensus metrics.
	Profile(ctx context.Context, symbol string) (*Profile, error)
}

// Float returns a pointer to v. Convenience for building Profiles.
func Float(v float64) *float64 { return &v }
