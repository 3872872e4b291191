package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	failures int
	calls    int
	profile  *Profile
}

func (f *flakyProvider) Financials(ctx context.Context, symbol string) (*StatementSet, error) {
	return nil, errors.New("not used")
}

func (f *flakyProvider) PriceHistory(ctx context.Context, symbol string, period string) (Series, error) {
	return nil, errors.New("not used")
}

func (f *flakyProvider) Profile(ctx context.Context, symbol string) (*Profile, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("upstream unavailable")
	}
	return f.profile, nil
}

func fastFailoverConfig() FailoverConfig {
	cfg := DefaultFailoverConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestFailover_RetriesThenSucceeds(t *testing.T) {
	primary := &flakyProvider{failures: 2, profile: &Profile{Symbol: "TEST", Sector: "Technology"}}
	f, err := NewFailover(fastFailoverConfig(), map[string]Provider{"primary": primary}, []string{"primary"})
	require.NoError(t, err)

	got, err := f.Profile(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "Technology", got.Sector)
	assert.Equal(t, 3, primary.calls)
}

func TestFailover_FallsBackToBackup(t *testing.T) {
	primary := &flakyProvider{failures: 100}
	backup := &flakyProvider{failures: 0, profile: &Profile{Symbol: "TEST", Sector: "Healthcare"}}

	f, err := NewFailover(fastFailoverConfig(),
		map[string]Provider{"primary": primary, "backup": backup},
		[]string{"primary", "backup"})
	require.NoError(t, err)

	got, err := f.Profile(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", got.Sector)
}

func TestFailover_CountsProviderFailures(t *testing.T) {
	primary := &flakyProvider{failures: 100}
	backup := &flakyProvider{failures: 0, profile: &Profile{Symbol: "TEST", Sector: "Energy"}}

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "provider_failures_total"}, []string{"provider"})
	f, err := NewFailover(fastFailoverConfig(),
		map[string]Provider{"primary": primary, "backup": backup},
		[]string{"primary", "backup"})
	require.NoError(t, err)
	f.Instrument(failures)

	_, err = f.Profile(context.Background(), "TEST")
	require.NoError(t, err)

	// One increment per provider that exhausted its retries, not per attempt.
	assert.Equal(t, 1.0, testutil.ToFloat64(failures.WithLabelValues("primary")))
	assert.Equal(t, 0.0, testutil.ToFloat64(failures.WithLabelValues("backup")))
}

func TestFailover_AllProvidersFailing(t *testing.T) {
	primary := &flakyProvider{failures: 100}
	f, err := NewFailover(fastFailoverConfig(), map[string]Provider{"primary": primary}, []string{"primary"})
	require.NoError(t, err)

	_, err = f.Profile(context.Background(), "TEST")
	assert.Error(t, err)
}

func TestFailover_UnknownProviderRejected(t *testing.T) {
	_, err := NewFailover(fastFailoverConfig(), map[string]Provider{}, []string{"ghost"})
	assert.Error(t, err)
}

func TestFailover_RespectsContextCancellation(t *testing.T) {
	primary := &flakyProvider{failures: 100}
	f, err := NewFailover(fastFailoverConfig(), map[string]Provider{"primary": primary}, []string{"primary"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Profile(ctx, "TEST")
	assert.Error(t, err)
}
