package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider serves canned data and counts fetches.
type stubProvider struct {
	series  Series
	fetches int
}

func (s *stubProvider) Financials(ctx context.Context, symbol string) (*StatementSet, error) {
	return &StatementSet{Symbol: symbol, BalanceSheet: NewTable(), Income: NewTable(), CashFlow: NewTable()}, nil
}

func (s *stubProvider) PriceHistory(ctx context.Context, symbol string, period string) (Series, error) {
	s.fetches++
	return s.series, nil
}

func (s *stubProvider) Profile(ctx context.Context, symbol string) (*Profile, error) {
	return &Profile{Symbol: symbol, Sector: "Unknown"}, nil
}

func dailySeries(start time.Time, closes ...float64) Series {
	out := make(Series, len(closes))
	for i, c := range closes {
		out[i] = Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func TestPointInTime_SlicesHistory(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubProvider{series: dailySeries(start, 10, 11, 12, 13, 14)}
	pit := NewPointInTime(stub)

	pit.SetAsOf(start.AddDate(0, 0, 2))
	got, err := pit.PriceHistory(context.Background(), "TEST", "5y")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 12.0, got.LastClose())

	// No look-ahead: the bar after asOf must never appear.
	for _, b := range got {
		assert.False(t, b.Time.After(start.AddDate(0, 0, 2)))
	}
}

func TestPointInTime_ZeroTimeReturnsFull(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubProvider{series: dailySeries(start, 10, 11, 12)}
	pit := NewPointInTime(stub)

	got, err := pit.PriceHistory(context.Background(), "TEST", "5y")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestPointInTime_FetchesOnce(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubProvider{series: dailySeries(start, 10, 11, 12)}
	pit := NewPointInTime(stub)

	for i := 0; i < 5; i++ {
		pit.SetAsOf(start.AddDate(0, 0, i))
		_, err := pit.PriceHistory(context.Background(), "TEST", "5y")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stub.fetches, "history should be preloaded once")
}

func TestSeries_Returns(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := dailySeries(start, 100, 110, 99)

	rets := s.Returns()
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.10, rets[0], 1e-9)
	assert.InDelta(t, -0.10, rets[1], 1e-9)
}
