package data

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PointInTime wraps a Provider so that price history is sliced to the
// simulated "current" date, preventing look-ahead during walk-forward
// backtests. Financial statements and profile data pass through unsliced:
// fundamentals are treated as static over the window, a documented
// limitation (true PIT would require filing dates).
type PointInTime struct {
	inner Provider

	mu      sync.RWMutex
	asOf    time.Time
	history map[string]Series // full history cache keyed by symbol
}

// NewPointInTime creates a PIT adapter over the given provider.
func NewPointInTime(inner Provider) *PointInTime {
	return &PointInTime{
		inner:   inner,
		history: make(map[string]Series),
	}
}

// SetAsOf moves the simulated clock. Zero time disables slicing.
func (p *PointInTime) SetAsOf(t time.Time) {
	p.mu.Lock()
	p.asOf = t
	p.mu.Unlock()
}

// AsOf returns the current simulated date.
func (p *PointInTime) AsOf() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.asOf
}

// Preload fetches and caches the full history once so the per-day loop
// never touches the network.
func (p *PointInTime) Preload(ctx context.Context, symbol string, period string) (Series, error) {
	full, err := p.inner.PriceHistory(ctx, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("preload history for %s: %w", symbol, err)
	}
	p.mu.Lock()
	p.history[symbol] = full
	p.mu.Unlock()
	return full, nil
}

// PriceHistory implements Provider, returning only bars at or before the
// simulated date.
func (p *PointInTime) PriceHistory(ctx context.Context, symbol string, period string) (Series, error) {
	p.mu.RLock()
	full, cached := p.history[symbol]
	asOf := p.asOf
	p.mu.RUnlock()

	if !cached {
		var err error
		full, err = p.Preload(ctx, symbol, period)
		if err != nil {
			return nil, err
		}
	}
	if asOf.IsZero() {
		return full, nil
	}
	return full.Before(asOf), nil
}

// Financials implements Provider (pass-through, static over the window).
func (p *PointInTime) Financials(ctx context.Context, symbol string) (*StatementSet, error) {
	return p.inner.Financials(ctx, symbol)
}

// Profile implements Provider (pass-through, static over the window).
func (p *PointInTime) Profile(ctx context.Context, symbol string) (*Profile, error) {
	return p.inner.Profile(ctx, symbol)
}
