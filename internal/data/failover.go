package data

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// FailoverConfig tunes the retry/backoff and circuit breaking of the
// provider chain.
type FailoverConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"` // base delay, doubled per attempt
	BreakerTrips uint32        `yaml:"breaker_trips"`
	BreakerReset time.Duration `yaml:"breaker_reset"`
}

// DefaultFailoverConfig returns the production failover settings.
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		BreakerTrips: 5,
		BreakerReset: 60 * time.Second,
	}
}

type namedProvider struct {
	name     string
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// Failover chains providers active-passive: the primary serves all calls
// until it errors or its breaker opens, then each backup is tried in
// order. Every provider gets the same retry-with-backoff treatment.
type Failover struct {
	config    FailoverConfig
	providers []namedProvider
	failures  *prometheus.CounterVec // per-provider failure counter, nil when unwired
}

// NewFailover builds a provider chain. Order matters: first is primary.
func NewFailover(config FailoverConfig, providers map[string]Provider, order []string) (*Failover, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("failover chain requires at least one provider")
	}
	f := &Failover{config: config}
	for _, name := range order {
		p, ok := providers[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider in chain: %s", name)
		}
		trips := config.BreakerTrips
		f.providers = append(f.providers, namedProvider{
			name:     name,
			provider: p,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    name,
				Timeout: config.BreakerReset,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= trips
				},
			}),
		})
	}
	return f, nil
}

// Instrument attaches the provider-failure counter. The label is the
// provider name; one increment per provider that exhausts its retries.
func (f *Failover) Instrument(failures *prometheus.CounterVec) *Failover {
	f.failures = failures
	return f
}

// Financials implements Provider.
func (f *Failover) Financials(ctx context.Context, symbol string) (*StatementSet, error) {
	var out *StatementSet
	err := f.call(ctx, "financials", symbol, func(ctx context.Context, p Provider) error {
		set, err := p.Financials(ctx, symbol)
		if err != nil {
			return err
		}
		out = set
		return nil
	})
	return out, err
}

// PriceHistory implements Provider.
func (f *Failover) PriceHistory(ctx context.Context, symbol string, period string) (Series, error) {
	var out Series
	err := f.call(ctx, "price_history", symbol, func(ctx context.Context, p Provider) error {
		series, err := p.PriceHistory(ctx, symbol, period)
		if err != nil {
			return err
		}
		out = series
		return nil
	})
	return out, err
}

// Profile implements Provider.
func (f *Failover) Profile(ctx context.Context, symbol string) (*Profile, error) {
	var out *Profile
	err := f.call(ctx, "profile", symbol, func(ctx context.Context, p Provider) error {
		profile, err := p.Profile(ctx, symbol)
		if err != nil {
			return err
		}
		out = profile
		return nil
	})
	return out, err
}

func (f *Failover) call(ctx context.Context, op, symbol string, fn func(context.Context, Provider) error) error {
	var lastErr error
	for _, np := range f.providers {
		err := f.callWithRetry(ctx, np, op, symbol, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if f.failures != nil {
			f.failures.WithLabelValues(np.name).Inc()
		}
		log.Warn().Str("provider", np.name).Str("op", op).Str("symbol", symbol).
			Err(err).Msg("provider failed, trying next in chain")
	}
	return fmt.Errorf("all providers failed for %s %s: %w", op, symbol, lastErr)
}

func (f *Failover) callWithRetry(ctx context.Context, np namedProvider, op, symbol string, fn func(context.Context, Provider) error) error {
	delay := f.config.RetryDelay
	var lastErr error

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		_, err := np.breaker.Execute(func() (interface{}, error) {
			return nil, fn(ctx, np.provider)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if err == gobreaker.ErrOpenState {
			// Breaker open: no point retrying this provider now.
			return fmt.Errorf("circuit open for %s: %w", np.name, err)
		}
	}
	return fmt.Errorf("%s %s exhausted %d retries: %w", op, symbol, f.config.MaxRetries, lastErr)
}
