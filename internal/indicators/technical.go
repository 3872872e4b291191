package indicators

import (
	"math"

	"github.com/garplab/garpscan/internal/data"
)

// Standard lookback periods for the technical posture snapshot.
const (
	RSIPeriod       = 14
	ATRPeriod       = 14
	BollingerPeriod = 20
	ShortMAPeriod   = 50
	LongMAPeriod    = 200
)

// RSIResult represents the result of RSI calculation.
type RSIResult struct {
	Value     float64 `json:"value"`
	Period    int     `json:"period"`
	IsValid   bool    `json:"is_valid"`
	DataCount int     `json:"data_count"`
}

// RSI calculates the Relative Strength Index with Wilder's smoothing.
func RSI(prices []float64, period int) RSIResult {
	if len(prices) < period+1 {
		return RSIResult{
			Value:     50.0, // neutral when insufficient data
			Period:    period,
			IsValid:   false,
			DataCount: len(prices),
		}
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	// SMA seed for the first period, Wilder EMA afterwards.
	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = avgGain*(1-alpha) + gains[i]*alpha
		avgLoss = avgLoss*(1-alpha) + losses[i]*alpha
	}

	if avgLoss == 0 {
		return RSIResult{Value: 100.0, Period: period, IsValid: true, DataCount: len(prices)}
	}
	rs := avgGain / avgLoss
	return RSIResult{
		Value:     100.0 - (100.0 / (1.0 + rs)),
		Period:    period,
		IsValid:   true,
		DataCount: len(prices),
	}
}

// SMA returns the simple moving average of the last `period` values, or 0
// with ok=false when history is too short.
func SMA(prices []float64, period int) (float64, bool) {
	if len(prices) < period || period <= 0 {
		return 0, false
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// RollingStd returns the sample standard deviation of the last `period`
// values.
func RollingStd(prices []float64, period int) (float64, bool) {
	if len(prices) < period || period < 2 {
		return 0, false
	}
	window := prices[len(prices)-period:]
	mean := 0.0
	for _, p := range window {
		mean += p
	}
	mean /= float64(period)

	variance := 0.0
	for _, p := range window {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(period - 1)
	return math.Sqrt(variance), true
}

// BollingerResult represents the %B position within the Bollinger band.
type BollingerResult struct {
	Upper    float64 `json:"upper"`
	Lower    float64 `json:"lower"`
	Position float64 `json:"position"` // 0 = lower band, 1 = upper band
	IsValid  bool    `json:"is_valid"`
}

// Bollinger computes a 2-sigma band over the given period and the latest
// price's position within it.
func Bollinger(prices []float64, period int) BollingerResult {
	mid, ok := SMA(prices, period)
	if !ok {
		return BollingerResult{Position: 0.5, IsValid: false}
	}
	std, ok := RollingStd(prices, period)
	if !ok || std == 0 {
		return BollingerResult{Position: 0.5, IsValid: false}
	}

	upper := mid + 2*std
	lower := mid - 2*std
	latest := prices[len(prices)-1]
	return BollingerResult{
		Upper:    upper,
		Lower:    lower,
		Position: (latest - lower) / (upper - lower),
		IsValid:  true,
	}
}

// ATRResult represents the result of ATR calculation.
type ATRResult struct {
	Value     float64 `json:"value"`
	Period    int     `json:"period"`
	IsValid   bool    `json:"is_valid"`
	DataCount int     `json:"data_count"`
}

// ATR calculates the Average True Range with Wilder's smoothing.
func ATR(bars data.Series, period int) ATRResult {
	if len(bars) < period+1 {
		return ATRResult{Period: period, IsValid: false, DataCount: len(bars)}
	}

	trueRanges := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		trueRanges[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}
	atr /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period; i < len(trueRanges); i++ {
		atr = atr*(1-alpha) + trueRanges[i]*alpha
	}

	return ATRResult{Value: atr, Period: period, IsValid: true, DataCount: len(bars)}
}

// Snapshot aggregates the technical posture the scoring engine consumes.
type Snapshot struct {
	Price         float64         `json:"price"`
	RSI           RSIResult       `json:"rsi"`
	ATR           ATRResult       `json:"atr"`
	Bollinger     BollingerResult `json:"bollinger"`
	MA50          float64         `json:"ma50"`
	MA200         float64         `json:"ma200"`
	HasMA50       bool            `json:"has_ma50"`
	HasMA200      bool            `json:"has_ma200"`
	GoldenCross   bool            `json:"golden_cross"`    // MA50 > MA200
	AboveLongMA   bool            `json:"above_long_ma"`   // price > MA200
	DailyReturns  []float64       `json:"-"`               // trailing daily returns for the resampler
}

// Compute builds the snapshot from a daily bar series. Short histories
// degrade per-indicator (IsValid / Has* flags), never error.
func Compute(series data.Series) Snapshot {
	closes := series.Closes()
	snap := Snapshot{
		Price:        series.LastClose(),
		RSI:          RSI(closes, RSIPeriod),
		ATR:          ATR(series, ATRPeriod),
		Bollinger:    Bollinger(closes, BollingerPeriod),
		DailyReturns: series.Returns(),
	}
	snap.MA50, snap.HasMA50 = SMA(closes, ShortMAPeriod)
	snap.MA200, snap.HasMA200 = SMA(closes, LongMAPeriod)
	if snap.HasMA50 && snap.HasMA200 {
		snap.GoldenCross = snap.MA50 > snap.MA200
	}
	if snap.HasMA200 {
		snap.AboveLongMA = snap.Price > snap.MA200
	}
	return snap
}
