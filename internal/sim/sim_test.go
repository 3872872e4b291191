package sim

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/regime"
)

func simConfig(paths, horizon int) config.SimulationConfig {
	cfg := config.Default().Simulation
	cfg.Paths = paths
	cfg.HorizonDays = horizon
	cfg.Workers = 2
	return cfg
}

func TestRun_ConstantPoolIsDeterministic(t *testing.T) {
	e := NewEngine(simConfig(1000, 5)).WithSeed(42)
	out, err := e.Run([]float64{0.01}, PoolFull, 5)
	require.NoError(t, err)

	want := math.Pow(1.01, 5) - 1
	assert.InDelta(t, want, out.ExpectedReturn, 1e-12)
	assert.InDelta(t, want, out.VaR95, 1e-12)
	assert.Equal(t, 1.0, out.WinRate)
	assert.Equal(t, 1, out.SampleSize)
}

func TestRun_EmptyPoolErrors(t *testing.T) {
	e := NewEngine(simConfig(100, 5))
	_, err := e.Run(nil, PoolFull, 5)
	assert.Error(t, err)
}

func TestRun_StatsAreCoherent(t *testing.T) {
	pool := []float64{-0.03, -0.01, 0.0, 0.01, 0.02, 0.03}
	e := NewEngine(simConfig(20000, 5)).WithSeed(7)
	out, err := e.Run(pool, PoolBull, 5)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, out.WinRate, 0.0)
	assert.LessOrEqual(t, out.WinRate, 1.0)
	assert.Less(t, out.VaR95, out.ExpectedReturn, "5th percentile must sit below the median")
	assert.Equal(t, 20000, out.Paths)
	assert.Equal(t, PoolBull, out.Pool)
}

func TestRun_ReproducibleWithSeed(t *testing.T) {
	pool := []float64{-0.02, 0.01, 0.03}
	a, err := NewEngine(simConfig(5000, 5)).WithSeed(99).Run(pool, PoolFull, 5)
	require.NoError(t, err)
	b, err := NewEngine(simConfig(5000, 5)).WithSeed(99).Run(pool, PoolFull, 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_MedianConvergesAcrossPathCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pool := make([]float64, 250)
	for i := range pool {
		pool[i] = rng.NormFloat64()*0.02 - 0.001
	}

	small, err := NewEngine(simConfig(1000, 5)).WithSeed(1).Run(pool, PoolFull, 5)
	require.NoError(t, err)
	large, err := NewEngine(simConfig(100000, 5)).WithSeed(2).Run(pool, PoolFull, 5)
	require.NoError(t, err)

	// Independent seeds; the sampling error on the 1k-path median is on
	// the order of 0.2pp, so the tolerances sit several sigma out.
	assert.InDelta(t, large.ExpectedReturn, small.ExpectedReturn, 0.0075)
	assert.InDelta(t, large.WinRate, small.WinRate, 0.06)
	assert.InDelta(t, large.VaR95, small.VaR95, 0.015)
}

func TestRun_CountsSimulatedPaths(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "simulation_paths_total"})
	e := NewEngine(simConfig(500, 5)).Instrument(c)

	_, err := e.Run([]float64{0.01}, PoolFull, 5)
	require.NoError(t, err)
	_, err = e.Run([]float64{0.01}, PoolFull, 5)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, testutil.ToFloat64(c))
}

func regimeFixture(t *testing.T) (data.Series, *regime.History) {
	t.Helper()
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

	// Benchmark: 230 rising days (bull flags once the MA200 exists),
	// then 30 collapsed days (bear flags).
	bench := make(data.Series, 260)
	for i := range bench {
		c := 100.0 + 0.1*float64(i)
		switch {
		case i >= 230:
			c = 50
		case i >= 200:
			c = 150
		}
		bench[i] = data.Bar{Time: start.AddDate(0, 0, i), Close: c}
	}

	// Symbol aligned to the same dates: +1% on bull days, -1% on bear.
	sym := make(data.Series, 260)
	price := 100.0
	for i := range sym {
		if i > 0 {
			if i >= 230 {
				price *= 0.99
			} else {
				price *= 1.01
			}
		}
		sym[i] = data.Bar{Time: start.AddDate(0, 0, i), Close: price}
	}
	return sym, regime.BuildHistory(bench)
}

func TestPartitionReturns_SplitsByRegime(t *testing.T) {
	sym, hist := regimeFixture(t)

	bullPool, label := PartitionReturns(sym, hist, true, 10)
	assert.Equal(t, PoolBull, label)
	for _, r := range bullPool {
		assert.Greater(t, r, 0.0, "bull pool must only hold bull-day returns")
	}

	bearPool, label := PartitionReturns(sym, hist, false, 10)
	assert.Equal(t, PoolBear, label)
	require.NotEmpty(t, bearPool)
	for _, r := range bearPool {
		assert.Less(t, r, 0.0)
	}
}

func TestPartitionReturns_ThinPoolFallsBack(t *testing.T) {
	sym, hist := regimeFixture(t)
	pool, label := PartitionReturns(sym, hist, false, 500)
	assert.Equal(t, PoolFull, label)
	assert.Len(t, pool, len(sym)-1)
}

func TestPartitionReturns_NilHistoryUsesFull(t *testing.T) {
	sym, _ := regimeFixture(t)
	pool, label := PartitionReturns(sym, nil, true, 50)
	assert.Equal(t, PoolFull, label)
	assert.Len(t, pool, len(sym)-1)
}

type zeroNormal struct{}

func (zeroNormal) NormFloat64() float64 { return 0 }

func TestLognormalBand_ZeroNoiseIsPureDrift(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01, 0.01}
	band, err := LognormalBand(1000, returns, 10, 100, zeroNormal{})
	require.NoError(t, err)

	// sigma = 0, so every path is exp(mu * days).
	want := 1000 * math.Exp(0.01*10)
	assert.InDelta(t, want, band.Median, 1e-9)
	assert.InDelta(t, want, band.Low, 1e-9)
	assert.InDelta(t, want, band.High, 1e-9)
	assert.Equal(t, 0.0, band.BankruptcyRisk)
}

func TestLognormalBand_WidensWithNoise(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.0, 0.02, 0.05, -0.03, 0.03, 0.01, -0.01, 0.04}
	band, err := LognormalBand(1000, returns, 21, 20000, NewNormalSource(11))
	require.NoError(t, err)

	assert.Less(t, band.Low, band.Median)
	assert.Greater(t, band.High, band.Median)
	assert.Greater(t, band.VaR95, 0.0)
	assert.InDelta(t, band.VaR95/1000, band.VaR95Pct, 1e-12)
}

func TestLognormalBand_EmptyReturnsErrors(t *testing.T) {
	_, err := LognormalBand(1000, nil, 5, 100, zeroNormal{})
	assert.Error(t, err)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, percentile(sorted, 50))
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 5.0, percentile(sorted, 100))
	assert.InDelta(t, 1.2, percentile(sorted, 5), 1e-9)
}
