package data

import "time"

// Bar represents one OHLCV observation.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered (oldest first) sequence of bars.
type Series []Bar

// Closes extracts the close prices, oldest first.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Returns computes simple daily returns from closes. Result has len(s)-1
// entries; zero-close days are skipped rather than dividing by zero.
func (s Series) Returns() []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Close
		if prev == 0 {
			continue
		}
		out = append(out, (s[i].Close-prev)/prev)
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s Series) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}

// Before returns the sub-series of bars strictly at or before t. The
// backtest's point-in-time adapter relies on this to prevent look-ahead.
func (s Series) Before(t time.Time) Series {
	// Bars are ordered, so binary search would work; histories are short
	// enough that a scan keeps this obvious.
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Time.After(t) {
			return s[:i+1]
		}
	}
	return nil
}
