// Package sector provides sector-relative valuation baselines: typical
// P/E and PEG distributions per sector, and the growth ceilings the DCF
// model uses so a utility is never projected like a software company.
package sector

// Stats holds the valuation distribution for one sector.
type Stats struct {
	AvgPE  float64 `yaml:"avg_pe"`
	StdPE  float64 `yaml:"std_pe"`
	AvgPEG float64 `yaml:"avg_peg"`
	StdPEG float64 `yaml:"std_peg"`
}

// Historical base rates per sector. "Unknown" is the fallback for symbols
// whose provider profile carries no sector.
var benchmarks = map[string]Stats{
	"Technology":             {AvgPE: 35.0, StdPE: 10.0, AvgPEG: 1.8, StdPEG: 0.5},
	"Communication Services": {AvgPE: 22.0, StdPE: 7.0, AvgPEG: 1.5, StdPEG: 0.4},
	"Financial Services":     {AvgPE: 12.0, StdPE: 3.0, AvgPEG: 1.0, StdPEG: 0.3},
	"Healthcare":             {AvgPE: 25.0, StdPE: 8.0, AvgPEG: 2.0, StdPEG: 0.6},
	"Consumer Cyclical":      {AvgPE: 20.0, StdPE: 6.0, AvgPEG: 1.5, StdPEG: 0.4},
	"Consumer Defensive":     {AvgPE: 21.0, StdPE: 5.0, AvgPEG: 2.2, StdPEG: 0.5},
	"Industrials":            {AvgPE: 18.0, StdPE: 5.0, AvgPEG: 1.4, StdPEG: 0.4},
	"Energy":                 {AvgPE: 11.0, StdPE: 4.0, AvgPEG: 0.9, StdPEG: 0.4},
	"Utilities":              {AvgPE: 17.0, StdPE: 3.0, AvgPEG: 2.5, StdPEG: 0.6},
	"Real Estate":            {AvgPE: 30.0, StdPE: 9.0, AvgPEG: 2.0, StdPEG: 0.6},
	"Basic Materials":        {AvgPE: 14.0, StdPE: 4.0, AvgPEG: 1.1, StdPEG: 0.4},
	"Unknown":                {AvgPE: 20.0, StdPE: 10.0, AvgPEG: 1.5, StdPEG: 0.5},
}

// DCF revenue-growth ceilings per sector. High-growth sectors may project
// faster; regulated/cyclical sectors are capped tighter.
var growthCeilings = map[string]float64{
	"Technology":             0.25,
	"Communication Services": 0.18,
	"Healthcare":             0.18,
	"Consumer Cyclical":      0.15,
	"Consumer Defensive":     0.10,
	"Financial Services":     0.12,
	"Industrials":            0.12,
	"Energy":                 0.10,
	"Utilities":              0.06,
	"Real Estate":            0.08,
	"Basic Materials":        0.10,
}

const defaultGrowthCeiling = 0.15

// Get returns the valuation stats for a sector, falling back to the
// Unknown baseline.
func Get(sector string) Stats {
	if s, ok := benchmarks[sector]; ok {
		return s
	}
	return benchmarks["Unknown"]
}

// Metric identifies which valuation ratio a z-score is computed over.
type Metric string

const (
	MetricPE  Metric = "pe"
	MetricPEG Metric = "peg"
)

// ZScore computes how far a stock's ratio sits from its sector peers, in
// standard deviations. Negative means cheaper than peers. Unknown metric
// or degenerate deviation yields 0 (neutral).
func ZScore(sector string, metric Metric, value float64) float64 {
	stats := Get(sector)

	var avg, std float64
	switch metric {
	case MetricPE:
		avg, std = stats.AvgPE, stats.StdPE
	case MetricPEG:
		avg, std = stats.AvgPEG, stats.StdPEG
	default:
		return 0.0
	}
	if std == 0 {
		return 0.0
	}
	return (value - avg) / std
}

// GrowthCeiling returns the DCF growth cap for a sector.
func GrowthCeiling(sector string) float64 {
	if c, ok := growthCeilings[sector]; ok {
		return c
	}
	return defaultGrowthCeiling
}
