// Package regime classifies the broad market as bullish or bearish from
// a benchmark index and its 200-day moving average, and derives the
// market sentiment z-score used to flex valuation ceilings.
package regime

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/indicators"
)

// Context is the market backdrop for a single analysis run.
type Context struct {
	Bullish    bool    `json:"bullish"`
	IndexClose float64 `json:"index_close"`
	IndexMA200 float64 `json:"index_ma200"`
	SentimentZ float64 `json:"sentiment_z"` // (close - MA200) / rolling sigma(200)
	VIX        float64 `json:"vix,omitempty"`
	HasVIX     bool    `json:"-"`
	SampleDays int     `json:"sample_days"`
}

// Detect builds the market context from the benchmark's daily series.
// With fewer than 200 bars the regime defaults to bullish with a neutral
// z-score, so thin history widens nothing and vetoes nothing.
func Detect(benchmark data.Series) Context {
	ctx := Context{Bullish: true, SampleDays: len(benchmark)}
	if len(benchmark) == 0 {
		return ctx
	}

	closes := benchmark.Closes()
	ctx.IndexClose = benchmark.LastClose()

	ma, ok := indicators.SMA(closes, indicators.LongMAPeriod)
	if !ok {
		log.Warn().Int("bars", len(benchmark)).Msg("benchmark history too short for regime detection, assuming bullish")
		return ctx
	}
	ctx.IndexMA200 = ma
	ctx.Bullish = ctx.IndexClose > ma

	if std, ok := indicators.RollingStd(closes, indicators.LongMAPeriod); ok && std > 0 {
		ctx.SentimentZ = (ctx.IndexClose - ma) / std
	}
	return ctx
}

// WithVIX attaches a volatility index reading to the context.
func (c Context) WithVIX(vix float64) Context {
	c.VIX = vix
	c.HasVIX = true
	return c
}

// History holds the benchmark's per-day regime flag so symbol returns can
// be partitioned by the regime that prevailed on each day.
type History struct {
	flags map[time.Time]bool
}

// BuildHistory computes the bullish flag for every benchmark bar with at
// least 200 days of prior history. Earlier bars carry no flag.
func BuildHistory(benchmark data.Series) *History {
	h := &History{flags: make(map[time.Time]bool, len(benchmark))}
	closes := benchmark.Closes()
	for i := indicators.LongMAPeriod - 1; i < len(benchmark); i++ {
		window := closes[i+1-indicators.LongMAPeriod : i+1]
		sum := 0.0
		for _, c := range window {
			sum += c
		}
		ma := sum / float64(indicators.LongMAPeriod)
		h.flags[day(benchmark[i].Time)] = closes[i] > ma
	}
	return h
}

// BullishOn reports the regime on a given day. ok is false when the
// benchmark has no flag for that day.
func (h *History) BullishOn(t time.Time) (bullish, ok bool) {
	bullish, ok = h.flags[day(t)]
	return bullish, ok
}

// Len returns the number of days with a computed flag.
func (h *History) Len() int { return len(h.flags) }

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
