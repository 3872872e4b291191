package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_KnownSector(t *testing.T) {
	s := Get("Technology")
	assert.Equal(t, 35.0, s.AvgPE)
	assert.Equal(t, 1.8, s.AvgPEG)
}

func TestGet_UnknownFallsBack(t *testing.T) {
	s := Get("Memecoins")
	assert.Equal(t, Get("Unknown"), s)
	assert.Equal(t, 20.0, s.AvgPE)
}

func TestZScore(t *testing.T) {
	// Technology: avg P/E 35, std 10. A P/E of 45 is one sigma rich.
	assert.InDelta(t, 1.0, ZScore("Technology", MetricPE, 45.0), 1e-9)

	// Financial Services: avg PEG 1.0, std 0.3. PEG 0.7 is one sigma cheap.
	assert.InDelta(t, -1.0, ZScore("Financial Services", MetricPEG, 0.7), 1e-9)

	// Unknown metric is neutral.
	assert.Equal(t, 0.0, ZScore("Technology", Metric("ev_ebitda"), 12.0))
}

func TestGrowthCeiling(t *testing.T) {
	assert.Equal(t, 0.25, GrowthCeiling("Technology"))
	assert.Equal(t, 0.06, GrowthCeiling("Utilities"))
	assert.Equal(t, defaultGrowthCeiling, GrowthCeiling("Something Else"))
}
