package features

import (
	"math"

	"SwingScan/internal/domain/models"

	"github.com/markcheno/go-talib"
)

// Closes extracts close prices from a candle window.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices.
func Highs(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices.
func Lows(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volumes.
func Volumes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// RollingAvgVolume returns the mean volume of the `window` candles ending
// at index i (inclusive). Returns 0 when not enough history precedes i.
func RollingAvgVolume(candles []models.Candle, i, window int) float64 {
	if window <= 0 || i+1 < window || i >= len(candles) {
		return 0
	}
	return SMA(Volumes(candles[:i+1]), window)
}

// VolumeRatio returns candle i's volume relative to its rolling average,
// or 1 when no average is computable (too little history).
func VolumeRatio(candles []models.Candle, i, window int) float64 {
	avg := RollingAvgVolume(candles, i, window)
	if avg <= 0 {
		return 1
	}
	return candles[i].Volume / avg
}

// ATR returns the latest average true range over the given period using
// the talib implementation, or 0 when the window is too short.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) <= period {
		return 0
	}
	atr := talib.Atr(Highs(candles), Lows(candles), Closes(candles), period)
	v := atr[len(atr)-1]
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// SMA returns the latest simple moving average of the values, 0 when short.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	out := talib.Sma(values, period)
	v := out[len(out)-1]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
