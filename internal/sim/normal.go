// Package sim implements the forecasting engines: a regime-conditioned
// historical bootstrap (no distribution assumption) and a lognormal
// Monte Carlo band for stress ranges.
package sim

import "math/rand"

// NormalSource draws standard normal variates. *rand.Rand satisfies it;
// tests substitute deterministic sources.
type NormalSource interface {
	NormFloat64() float64
}

// NewNormalSource returns a seeded gaussian source.
func NewNormalSource(seed int64) NormalSource {
	return rand.New(rand.NewSource(seed))
}
