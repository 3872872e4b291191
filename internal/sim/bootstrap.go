package sim

import (
	"errors"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/config"
	"github.com/garplab/garpscan/internal/data"
	"github.com/garplab/garpscan/internal/regime"
)

// Regime labels for the sample pool actually used.
const (
	PoolBull = "bull"
	PoolBear = "bear"
	PoolFull = "full-history"
)

// Outcome summarizes the bootstrap distribution of cumulative returns.
type Outcome struct {
	ExpectedReturn float64 `json:"expected_return"` // median cumulative return
	WinRate        float64 `json:"win_rate"`        // fraction of paths ending positive
	VaR95          float64 `json:"var_95"`          // 5th percentile cumulative return
	SampleSize     int     `json:"sample_size"`     // returns in the sampled pool
	Paths          int     `json:"paths"`
	HorizonDays    int     `json:"horizon_days"`
	Pool           string  `json:"pool"`
}

var errEmptyPool = errors.New("sim: empty return pool")

// PartitionReturns splits the symbol's daily returns by the benchmark
// regime that prevailed on each day and returns the pool matching the
// current regime. Days without a benchmark flag count as bullish. Pools
// thinner than minSamples fall back to the full history.
func PartitionReturns(series data.Series, bench *regime.History, bullish bool, minSamples int) ([]float64, string) {
	all := series.Returns()
	if bench == nil {
		return all, PoolFull
	}

	pool := make([]float64, 0, len(all))
	// Returns()[i-1] is the return realized on series[i].Time.
	idx := 0
	for i := 1; i < len(series); i++ {
		if series[i-1].Close == 0 {
			continue
		}
		r := all[idx]
		idx++

		flag, ok := bench.BullishOn(series[i].Time)
		if !ok {
			flag = true
		}
		if flag == bullish {
			pool = append(pool, r)
		}
	}

	label := PoolBull
	if !bullish {
		label = PoolBear
	}
	if len(pool) < minSamples {
		log.Debug().Int("pool", len(pool)).Int("min", minSamples).
			Msg("regime pool too thin, falling back to full history")
		return all, PoolFull
	}
	return pool, label
}

// Engine runs regime-conditioned bootstrap simulations.
type Engine struct {
	cfg   config.SimulationConfig
	seed  int64
	paths prometheus.Counter // simulated-path counter, nil when unwired
}

// NewEngine creates a bootstrap engine with a fixed default seed, so
// repeated runs over the same pool agree. WithSeed overrides it.
func NewEngine(cfg config.SimulationConfig) *Engine {
	return &Engine{cfg: cfg, seed: 1}
}

// WithSeed fixes the base RNG seed for reproducible runs.
func (e *Engine) WithSeed(seed int64) *Engine {
	e.seed = seed
	return e
}

// Instrument attaches a counter incremented by the number of paths each
// run simulates.
func (e *Engine) Instrument(paths prometheus.Counter) *Engine {
	e.paths = paths
	return e
}

// Run resamples the pool with replacement over the horizon, compounding
// multiplicatively, and summarizes the resulting distribution.
func (e *Engine) Run(pool []float64, label string, horizon int) (Outcome, error) {
	if len(pool) == 0 {
		return Outcome{}, errEmptyPool
	}
	if horizon <= 0 {
		horizon = e.cfg.HorizonDays
	}

	paths := e.cfg.Paths
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > paths {
		workers = 1
	}

	cum := make([]float64, paths)
	var wg sync.WaitGroup
	chunk := (paths + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > paths {
			hi = paths
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int, seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for p := lo; p < hi; p++ {
				growth := 1.0
				for d := 0; d < horizon; d++ {
					growth *= 1 + pool[rng.Intn(len(pool))]
				}
				cum[p] = growth - 1
			}
		}(lo, hi, e.seed+int64(w))
	}
	wg.Wait()

	if e.paths != nil {
		e.paths.Add(float64(paths))
	}

	sort.Float64s(cum)
	wins := 0
	for _, r := range cum {
		if r > 0 {
			wins++
		}
	}

	return Outcome{
		ExpectedReturn: percentile(cum, 50),
		WinRate:        float64(wins) / float64(paths),
		VaR95:          percentile(cum, 5),
		SampleSize:     len(pool),
		Paths:          paths,
		HorizonDays:    horizon,
		Pool:           label,
	}, nil
}

// percentile computes the p-th percentile of a sorted slice with linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
