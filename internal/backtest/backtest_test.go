package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/scoring"
)

// scripted replays a fixed verdict sequence, one entry per trading day.
type scripted struct {
	seq []string // PASS, REJECT, WATCHLIST or ERR
	i   int
}

func (s *scripted) Classify(ctx context.Context, symbol string, mkt scoring.Market) (*scoring.ScoreCard, error) {
	v := "WATCHLIST"
	if s.i < len(s.seq) {
		v = s.seq[s.i]
	}
	s.i++
	if v == "ERR" {
		return nil, errors.New("data gap")
	}
	card := scoring.NewScoreCard(symbol, 0)
	card.Status = scoring.Status(v)
	card.Reason = "scripted"
	return card, nil
}

type backtestProvider struct {
	series data.Series
}

func (p *backtestProvider) Financials(ctx context.Context, symbol string) (*data.StatementSet, error) {
	return &data.StatementSet{Symbol: symbol, BalanceSheet: data.NewTable(), Income: data.NewTable(), CashFlow: data.NewTable()}, nil
}

func (p *backtestProvider) PriceHistory(ctx context.Context, symbol string, period string) (data.Series, error) {
	return p.series, nil
}

func (p *backtestProvider) Profile(ctx context.Context, symbol string) (*data.Profile, error) {
	return &data.Profile{Symbol: symbol, Sector: "Unknown"}, nil
}

func fixtureDays(n int, startPrice, step float64) (data.Series, time.Time, time.Time) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(data.Series, n)
	for i := range s {
		c := startPrice + step*float64(i)
		s[i] = data.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return s, start, start.AddDate(0, 0, n-1)
}

func newTestEngine(series data.Series, seq []string) *Engine {
	cfg := config.Default()
	return New(cfg, &backtestProvider{series: series}, nil).WithClassifier(&scripted{seq: seq})
}

func TestRun_BuySellCycle(t *testing.T) {
	series, start, end := fixtureDays(6, 100, 5) // 100,105,...,125
	e := newTestEngine(series, []string{"PASS", "WATCHLIST", "WATCHLIST", "REJECT", "WATCHLIST", "WATCHLIST"})

	res, err := e.Run(context.Background(), "TEST", start, end)
	require.NoError(t, err)

	require.Equal(t, 2, res.TradeCount)
	trades := res.Trades
	assert.Equal(t, ActionBuy, trades[0].Action)
	assert.Equal(t, ActionSell, trades[1].Action)

	// Buy fills at 100 * 1.001, sell at 115 * 0.999.
	assert.True(t, trades[0].Price.Equal(decimal.NewFromFloat(100).Mul(decimal.NewFromFloat(1.001))),
		"buy slippage must raise the fill price")
	assert.True(t, trades[1].Price.Equal(decimal.NewFromFloat(115).Mul(decimal.NewFromFloat(0.999))))

	// Whole position cycle: profit despite slippage.
	assert.True(t, res.FinalValue.GreaterThan(res.InitialCapital))
}

func TestRun_LedgerAccountingIdentity(t *testing.T) {
	series, start, end := fixtureDays(8, 50, 2)
	e := newTestEngine(series, []string{"PASS", "WATCHLIST", "REJECT", "PASS", "WATCHLIST", "WATCHLIST", "WATCHLIST", "WATCHLIST"})

	res, err := e.Run(context.Background(), "TEST", start, end)
	require.NoError(t, err)
	require.Equal(t, 3, res.TradeCount)

	// Final cash = initial + net ledger flow; holdings are the shares
	// bought in the still-open position valued at the last close.
	lastClose := decimal.NewFromFloat(series[len(series)-1].Close)
	openShares := decimal.Zero
	for _, tr := range res.Trades {
		if tr.Action == ActionBuy {
			openShares = openShares.Add(tr.Shares)
		} else {
			openShares = openShares.Sub(tr.Shares)
		}
	}
	reconstructed := res.InitialCapital.Add(res.Ledger.NetFlow()).Add(openShares.Mul(lastClose))
	assert.True(t, reconstructed.Equal(res.FinalValue),
		"ledger must reconcile: %s != %s", reconstructed, res.FinalValue)
}

func TestRun_ScoringFailureSkipsDayNotRun(t *testing.T) {
	series, start, end := fixtureDays(5, 100, 1)
	e := newTestEngine(series, []string{"ERR", "ERR", "PASS", "WATCHLIST", "WATCHLIST"})

	res, err := e.Run(context.Background(), "TEST", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SkippedDays)
	assert.Equal(t, 1, res.TradeCount)
	assert.Equal(t, 5, res.TradingDays)
}

func TestRun_WatchlistNeverTrades(t *testing.T) {
	series, start, end := fixtureDays(5, 100, -3)
	e := newTestEngine(series, []string{"WATCHLIST", "WATCHLIST", "WATCHLIST", "WATCHLIST", "WATCHLIST"})

	res, err := e.Run(context.Background(), "TEST", start, end)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TradeCount)
	assert.True(t, res.FinalValue.Equal(res.InitialCapital), "all-cash run must end flat")
}

func TestRun_RejectWithoutPositionIsNoop(t *testing.T) {
	series, start, end := fixtureDays(3, 100, 1)
	e := newTestEngine(series, []string{"REJECT", "REJECT", "REJECT"})

	res, err := e.Run(context.Background(), "TEST", start, end)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TradeCount)
}

func TestRun_EmptyRangeErrors(t *testing.T) {
	series, _, _ := fixtureDays(3, 100, 1)
	e := newTestEngine(series, nil)

	outside := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := e.Run(context.Background(), "TEST", outside, outside.AddDate(0, 0, 5))
	assert.Error(t, err)
}
