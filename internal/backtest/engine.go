package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/scoring"
	"github.com/garplab/garpscan/internal/sentiment"
)

// Classifier produces a verdict for a symbol against a market backdrop.
// The production implementation is the scoring engine running over the
// point-in-time provider.
type Classifier interface {
	Classify(ctx context.Context, symbol string, mkt scoring.Market) (*scoring.ScoreCard, error)
}

// Result is the outcome of one walk-forward run. Callers compose higher
// level statistics (Sharpe, drawdown) from the ledger.
type Result struct {
	Symbol         string          `json:"symbol"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalValue     decimal.Decimal `json:"final_value"`
	TotalReturnPct decimal.Decimal `json:"total_return_pct"`
	TradeCount     int             `json:"trade_count"`
	TradingDays    int             `json:"trading_days"`
	SkippedDays    int             `json:"skipped_days"`
	Ledger         *Ledger         `json:"-"`
	Trades         []TradeRecord   `json:"trades"`
}

// Engine replays verdicts over a date range. Fundamentals are served
// as-is for the whole window; only price and technical history are
// sliced point-in-time. That look-ahead on statements is a documented
// limitation of the data source, not a hidden bug.
type Engine struct {
	cfg         config.BacktestConfig
	providerCfg config.ProviderConfig
	pit         *data.PointInTime
	classifier  Classifier
}

// New builds a backtest engine over the given provider. The scoring
// engine and the backtest share one point-in-time view so the verdict
// can never see a price the trading day could not.
func New(cfg *config.Config, provider data.Provider, advisor sentiment.Source) *Engine {
	pit := data.NewPointInTime(provider)
	return &Engine{
		cfg:         cfg.Backtest,
		providerCfg: cfg.Provider,
		pit:         pit,
		classifier:  scoring.NewEngine(cfg, pit, advisor),
	}
}

// WithClassifier substitutes the verdict source. Tests use this to
// script verdict sequences.
func (e *Engine) WithClassifier(c Classifier) *Engine {
	e.classifier = c
	return e
}

// Run walks every trading day of the symbol inside [start, end] and
// executes the long-only single-position policy: PASS buys with all
// cash, REJECT liquidates, WATCHLIST holds. A scoring failure skips the
// day and the run continues.
func (e *Engine) Run(ctx context.Context, symbol string, start, end time.Time) (*Result, error) {
	e.pit.SetAsOf(time.Time{})
	full, err := e.pit.PriceHistory(ctx, symbol, "5y")
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	var days data.Series
	for _, bar := range full {
		if !bar.Time.Before(start) && !bar.Time.After(end) {
			days = append(days, bar)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days for %s in [%s, %s]",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	slipBuy := decimal.NewFromFloat(1 + e.cfg.SlippagePct)
	slipSell := decimal.NewFromFloat(1 - e.cfg.SlippagePct)

	cash := decimal.NewFromFloat(e.cfg.InitialCapital)
	shares := decimal.Zero
	ledger := &Ledger{}
	skipped := 0

	for _, bar := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.pit.SetAsOf(bar.Time)

		mkt, err := scoring.BuildMarket(ctx, e.pit, e.providerCfg)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Time("day", bar.Time).Msg("market context unavailable, skipping day")
			skipped++
			continue
		}

		card, err := e.classifier.Classify(ctx, symbol, mkt)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Time("day", bar.Time).Msg("scoring failed, skipping day")
			skipped++
			continue
		}

		date := bar.Time.Format("2006-01-02")
		close := decimal.NewFromFloat(bar.Close)

		switch card.Status {
		case scoring.StatusPass:
			if cash.IsPositive() {
				price := close.Mul(slipBuy)
				qty := cash.Div(price)
				ledger.Append(TradeRecord{
					Date: date, Action: ActionBuy, Price: price,
					Shares: qty, Value: cash, Reason: card.Reason,
				})
				shares = shares.Add(qty)
				cash = decimal.Zero
			}
		case scoring.StatusReject:
			if shares.IsPositive() {
				price := close.Mul(slipSell)
				proceeds := shares.Mul(price)
				ledger.Append(TradeRecord{
					Date: date, Action: ActionSell, Price: price,
					Shares: shares, Value: proceeds, Reason: card.Reason,
				})
				cash = cash.Add(proceeds)
				shares = decimal.Zero
			}
		case scoring.StatusWatchlist:
			// Hold.
		}
	}

	lastClose := decimal.NewFromFloat(days[len(days)-1].Close)
	finalValue := cash.Add(shares.Mul(lastClose))
	initial := decimal.NewFromFloat(e.cfg.InitialCapital)

	res := &Result{
		Symbol:         symbol,
		Start:          days[0].Time,
		End:            days[len(days)-1].Time,
		InitialCapital: initial,
		FinalValue:     finalValue,
		TotalReturnPct: finalValue.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100)),
		TradeCount:     ledger.Len(),
		TradingDays:    len(days),
		SkippedDays:    skipped,
		Ledger:         ledger,
		Trades:         ledger.Records(),
	}
	log.Info().Str("symbol", symbol).Int("trades", res.TradeCount).Int("skipped", skipped).
		Str("final", finalValue.StringFixed(2)).Msg("backtest complete")
	return res, nil
}

var _ Classifier = (*scoring.Engine)(nil)
