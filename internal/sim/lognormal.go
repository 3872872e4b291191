package sim

import (
	"math"
	"sort"
)

// Band is the lognormal Monte Carlo stress range for a position value.
type Band struct {
	StartValue     float64 `json:"start_value"`
	Median         float64 `json:"median"`
	Low            float64 `json:"low"`  // 5th percentile final value
	High           float64 `json:"high"` // 95th percentile final value
	VaR95          float64 `json:"var_95"`
	VaR95Pct       float64 `json:"var_95_pct"`
	BankruptcyRisk float64 `json:"bankruptcy_risk"` // P(final < 0.5 * start)
	Paths          int     `json:"paths"`
	Days           int     `json:"days"`
}

// LognormalBand simulates geometric Brownian price paths from the
// sample mean and deviation of the daily returns:
// V_t = V_0 * exp(sum(mu - 0.5*sigma^2 + sigma*Z)).
func LognormalBand(startValue float64, dailyReturns []float64, days, paths int, src NormalSource) (Band, error) {
	if len(dailyReturns) == 0 {
		return Band{}, errEmptyPool
	}

	mu, sigma := meanStd(dailyReturns)
	drift := mu - 0.5*sigma*sigma

	finals := make([]float64, paths)
	for p := 0; p < paths; p++ {
		sum := 0.0
		for d := 0; d < days; d++ {
			sum += drift + sigma*src.NormFloat64()
		}
		finals[p] = startValue * math.Exp(sum)
	}
	sort.Float64s(finals)

	ruined := 0
	for _, v := range finals {
		if v < startValue*0.5 {
			ruined++
		}
	}

	p5 := percentile(finals, 5)
	return Band{
		StartValue:     startValue,
		Median:         percentile(finals, 50),
		Low:            p5,
		High:           percentile(finals, 95),
		VaR95:          startValue - p5,
		VaR95Pct:       (startValue - p5) / startValue,
		BankruptcyRisk: float64(ruined) / float64(paths),
		Paths:          paths,
		Days:           days,
	}, nil
}

func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	if len(xs) < 2 {
		return mean, 0
	}
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs) - 1)
	return mean, math.Sqrt(variance)
}
