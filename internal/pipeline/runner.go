// Package pipeline batches symbol analyses: one market context per run,
// a throttle between symbols for provider quotas, snapshot persistence
// and telemetry. Per-symbol failures are isolated; the batch continues.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/scoring"
	"github.com/garplab/garpscan/internal/snapshot"
	"github.com/garplab/garpscan/internal/telemetry"
)

// Analyzer scores one symbol against a prebuilt market backdrop.
type Analyzer interface {
	AnalyzeWithMarket(ctx context.Context, symbol string, mkt scoring.Market) (*scoring.ScoreCard, error)
}

// Result is the outcome of one batch run.
type Result struct {
	RunID    string               `json:"run_id"`
	Started  time.Time            `json:"started"`
	Finished time.Time            `json:"finished"`
	Cards    []*scoring.ScoreCard `json:"cards"`
	Failures map[string]string    `json:"failures,omitempty"` // symbol -> error
}

// Runner drives a batch of symbols through the scoring engine
// sequentially. Each symbol's pipeline is internally data-dependent, so
// parallelism lives inside the simulation engine, not here.
type Runner struct {
	analyzer Analyzer
	provider data.Provider
	store    snapshot.Store // optional
	metrics  *telemetry.Metrics
	cfg      *config.Config
	limiter  *rate.Limiter
}

// NewRunner wires the batch runner. store and metrics may be nil.
func NewRunner(cfg *config.Config, analyzer Analyzer, provider data.Provider,
	store snapshot.Store, metrics *telemetry.Metrics) *Runner {

	rps := cfg.Pipeline.SymbolsPerSecond
	if rps <= 0 {
		rps = 1.0
	}
	return &Runner{
		analyzer: analyzer,
		provider: provider,
		store:    store,
		metrics:  metrics,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Run analyzes every symbol in order. The market backdrop is fetched
// once and shared by the whole batch, so every card in a run is scored
// against the same regime.
func (r *Runner) Run(ctx context.Context, symbols []string) (*Result, error) {
	res := &Result{
		RunID:    uuid.NewString(),
		Started:  time.Now().UTC(),
		Failures: make(map[string]string),
	}
	logger := log.With().Str("run_id", res.RunID).Logger()
	logger.Info().Int("symbols", len(symbols)).Msg("batch analysis started")

	mkt, err := scoring.BuildMarket(ctx, r.provider, r.cfg.Provider)
	if err != nil {
		return nil, err
	}
	logger.Info().Bool("bullish", mkt.Context.Bullish).
		Float64("sentiment_z", mkt.Context.SentimentZ).Msg("market context resolved")

	for _, symbol := range symbols {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		started := time.Now()
		card, err := r.analyzer.AnalyzeWithMarket(ctx, symbol, mkt)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
			res.Failures[symbol] = err.Error()
			continue
		}
		if r.metrics != nil {
			r.metrics.ObserveAnalysis(string(card.Status), time.Since(started).Seconds())
		}

		r.persist(ctx, &logger, card)
		res.Cards = append(res.Cards, card)
	}

	res.Finished = time.Now().UTC()
	logger.Info().Int("scored", len(res.Cards)).Int("failed", len(res.Failures)).
		Msg("batch analysis finished")
	return res, nil
}

// persist writes the snapshot if a store is wired. Storage failures are
// logged and counted, never fatal to the batch.
func (r *Runner) persist(ctx context.Context, logger *zerolog.Logger, card *scoring.ScoreCard) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, card); err != nil {
		logger.Error().Err(err).Str("symbol", card.Symbol).Msg("snapshot save failed")
		if r.metrics != nil {
			r.metrics.SnapshotWrites.WithLabelValues("error").Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.SnapshotWrites.WithLabelValues("ok").Inc()
	}
}
