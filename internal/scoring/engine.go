package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/factors"
	"github.com/garplab/garpscan/internal/indicators"
	"github.com/garplab/garpscan/internal/regime"
	"github.com/garplab/garpscan/internal/sentiment"
	"github.com/garplab/garpscan/internal/sim"
	"github.com/garplab/garpscan/internal/telemetry"
)

// Market is the caller-supplied market backdrop: the current regime
// context plus the benchmark's per-day regime history for conditioning
// the bootstrap. Passing it in keeps Analyze a pure function of its
// inputs.
type Market struct {
	Context regime.Context
	History *regime.History
}

// BuildMarket fetches the benchmark and volatility index and derives the
// market backdrop. A missing volatility index degrades silently.
func BuildMarket(ctx context.Context, provider data.Provider, cfg config.ProviderConfig) (Market, error) {
	bench, err := provider.PriceHistory(ctx, cfg.BenchmarkIndex, "5y")
	if err != nil {
		return Market{}, fmt.Errorf("fetch benchmark %s: %w", cfg.BenchmarkIndex, err)
	}

	mkt := Market{
		Context: regime.Detect(bench),
		History: regime.BuildHistory(bench),
	}

	if cfg.VolatilityIdx != "" {
		if vix, err := provider.PriceHistory(ctx, cfg.VolatilityIdx, "5d"); err == nil && len(vix) > 0 {
			mkt.Context = mkt.Context.WithVIX(vix.LastClose())
		} else if err != nil {
			log.Warn().Err(err).Str("index", cfg.VolatilityIdx).Msg("volatility index unavailable")
		}
	}
	return mkt, nil
}

// Engine wires the data provider, the optional sentiment source and the
// bootstrap simulator into the scoring pipeline.
type Engine struct {
	cfg       *config.Config
	provider  data.Provider
	advisor   sentiment.Source
	bootstrap *sim.Engine
	simPaths  prometheus.Counter // nil when telemetry is unwired
}

// NewEngine creates a scoring engine. advisor may be nil; the pipeline
// then runs with neutral sentiment.
func NewEngine(cfg *config.Config, provider data.Provider, advisor sentiment.Source) *Engine {
	return &Engine{
		cfg:       cfg,
		provider:  provider,
		advisor:   advisor,
		bootstrap: sim.NewEngine(cfg.Simulation),
	}
}

// Instrument attaches the simulation-path counter, covering both the
// bootstrap runs and the lognormal band.
func (e *Engine) Instrument(m *telemetry.Metrics) *Engine {
	e.simPaths = m.SimulationPaths
	e.bootstrap.Instrument(m.SimulationPaths)
	return e
}

// Analyze fetches everything for one symbol, builds the market backdrop
// itself, and scores.
func (e *Engine) Analyze(ctx context.Context, symbol string) (*ScoreCard, error) {
	mkt, err := BuildMarket(ctx, e.provider, e.cfg.Provider)
	if err != nil {
		return nil, err
	}
	return e.AnalyzeWithMarket(ctx, symbol, mkt)
}

// AnalyzeWithMarket scores one symbol against a prebuilt market
// backdrop, including the forecast overlay.
func (e *Engine) AnalyzeWithMarket(ctx context.Context, symbol string, mkt Market) (*ScoreCard, error) {
	return e.analyze(ctx, symbol, mkt, true)
}

// Classify scores without the forecast overlay. The backtest engine
// replays this daily; resampling tens of thousands of paths per
// simulated day would add nothing to the verdict.
func (e *Engine) Classify(ctx context.Context, symbol string, mkt Market) (*ScoreCard, error) {
	return e.analyze(ctx, symbol, mkt, false)
}

func (e *Engine) analyze(ctx context.Context, symbol string, mkt Market, forecast bool) (*ScoreCard, error) {
	statements, err := e.provider.Financials(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch financials for %s: %w", symbol, err)
	}
	profile, err := e.provider.Profile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", symbol, err)
	}
	history, err := e.provider.PriceHistory(ctx, symbol, "5y")
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", symbol, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}

	snap := indicators.Compute(history)
	adv := e.advise(ctx, symbol)

	card := NewScoreCard(symbol, snap.Price)
	card.GeneratedAt = time.Now().UTC()
	card.Metrics = factors.Compute(statements, profile, snap.Price, mkt.Context.SentimentZ, e.cfg.DCF)

	Score(card, profile, snap, mkt, adv, e.cfg)

	if forecast {
		e.predict(card, profile, history, snap, mkt)
	}
	return card, nil
}

// Score runs the checks, base classification and override pipeline over
// already-fetched inputs. card.Metrics must be populated beforehand.
// It is deterministic: the same inputs always produce the same status
// and reason.
func Score(card *ScoreCard, profile *data.Profile, snap indicators.Snapshot,
	mkt Market, adv sentiment.Advisory, cfg *config.Config) {

	card.Solvency = CheckSolvency(profile, cfg.Solvency)
	card.Quality = CheckQuality(profile, cfg.Quality)
	card.Valuation = CheckValuation(profile, card.Price, card.Metrics.DCF, mkt.Context, adv, cfg.Valuation)
	card.Technical = CheckTechnical(snap, cfg.Technical)

	card.collectRedFlags()
	classify(card)
	applyOverrides(card, snap, adv, cfg.Overrides)
}

func (e *Engine) advise(ctx context.Context, symbol string) sentiment.Advisory {
	if e.advisor == nil {
		return sentiment.Neutral()
	}
	adv, err := e.advisor.Advise(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment source failed, using neutral")
		return sentiment.Neutral()
	}
	return adv
}

// predict attaches the regime-bootstrap forecast and the lognormal
// volatility band. Forecast failures degrade to absent fields, never
// fail the analysis.
func (e *Engine) predict(card *ScoreCard, profile *data.Profile, history data.Series,
	snap indicators.Snapshot, mkt Market) {

	simCfg := e.cfg.Simulation
	pool, label := sim.PartitionReturns(history, mkt.History, mkt.Context.Bullish, simCfg.MinRegimeSamples)

	week, err := e.bootstrap.Run(pool, label, simCfg.HorizonDays)
	if err != nil {
		log.Warn().Err(err).Str("symbol", card.Symbol).Msg("bootstrap forecast unavailable")
		return
	}

	score := StrategyScore(profile, snap, mkt.Context)
	alphaWeek := (score - 50) / 50 * 0.02
	r1w := (week.ExpectedReturn + alphaWeek) * 100
	conf := 0.4*week.WinRate + 0.6*absf(score-50)/50
	if conf > 1.0 {
		conf = 1.0
	}

	// The week forecast stands on its own; a failed month horizon only
	// leaves that field absent.
	card.Prediction = Prediction{
		Return1W:   &r1w,
		Confidence: &conf,
		SampleSize: week.SampleSize,
		Pool:       week.Pool,
	}

	if month, err := e.bootstrap.Run(pool, label, simCfg.MonthHorizonDays); err == nil {
		alphaMonth := alphaWeek * float64(simCfg.MonthHorizonDays) / float64(simCfg.HorizonDays)
		r1m := (month.ExpectedReturn + alphaMonth) * 100
		card.Prediction.Return1M = &r1m
	} else {
		log.Warn().Err(err).Str("symbol", card.Symbol).Msg("month-horizon bootstrap unavailable")
	}

	if band, err := sim.LognormalBand(card.Price, snap.DailyReturns, simCfg.MonthHorizonDays,
		simCfg.Paths, sim.NewNormalSource(time.Now().UnixNano())); err == nil {
		card.Prediction.VolLow = &band.Low
		card.Prediction.VolHigh = &band.High
		if e.simPaths != nil {
			e.simPaths.Add(float64(band.Paths))
		}
	}
}

// StrategyScore condenses quality, valuation, trend and technical
// posture into a 0-100 alpha score with 50 as neutral. Missing momentum
// data is neutral by construction.
func StrategyScore(profile *data.Profile, snap indicators.Snapshot, mkt regime.Context) float64 {
	if !snap.RSI.IsValid {
		return 50
	}
	score := 0.0

	// Quality (30 pts).
	roe := 0.15
	if profile.ReturnOnEquity != nil {
		roe = *profile.ReturnOnEquity
	}
	score += 10
	if roe > 0.20 {
		score += 20
	} else if roe > 0.10 {
		score += 10
	}

	// Valuation (30 pts): analyst target upside.
	score += 10
	if profile.TargetMeanPrice != nil && snap.Price > 0 && *profile.TargetMeanPrice > snap.Price {
		upside := (*profile.TargetMeanPrice - snap.Price) / snap.Price
		if upside > 0.2 {
			score += 20
		} else if upside > 0.1 {
			score += 10
		}
	}

	// Trend (20 pts).
	if snap.GoldenCross {
		score += 10
	}
	if mkt.Bullish {
		score += 10
	}
	if mkt.HasVIX && mkt.VIX > 25 {
		score -= 5
	}

	// Technical (20 pts): mean reversion at the lows, momentum in the
	// middle, penalty at the extreme top.
	rsi := snap.RSI.Value
	switch {
	case rsi < 30:
		score += 20
	case rsi < 45:
		score += 10
	case rsi > 55 && rsi < 70:
		score += 10
	case rsi > 80:
		score -= 10
	}
	if snap.Bollinger.IsValid && snap.Bollinger.Position < 0.05 {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
