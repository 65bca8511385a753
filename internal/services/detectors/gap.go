package detectors

import (
	"math"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/services/features"
	"SwingScan/pkg/config"
)

// fvgZone is one detected fair value gap inside a window.
type fvgZone struct {
	direction       models.Direction
	low, high       float64
	sizePct         float64
	strength        float64
	volumeConfirmed bool
	nearPrice       bool
	age             int
	filled          bool
}

// GapDetector finds fair value gaps with the 3-candle rule: a bullish
// gap exists when the third candle's low clears the first candle's high,
// leaving untraded space around the middle candle.
type GapDetector struct {
	cfg *config.Config
}

func NewGapDetector(cfg *config.Config) *GapDetector {
	return &GapDetector{cfg: cfg}
}

func (d *GapDetector) Kind() models.DetectorKind { return models.DetectorGap }

func (d *GapDetector) Evaluate(window []models.Candle) models.DetectorResult {
	if len(window) < 3 {
		return models.NeutralResult(models.DetectorGap, "window too short for gap detection")
	}
	gc := d.cfg.Detectors.Gap
	currentPrice := window[len(window)-1].Close
	if currentPrice <= 0 {
		return models.NeutralResult(models.DetectorGap, "invalid reference price")
	}

	var zones []fvgZone
	for i := 2; i < len(window); i++ {
		c1, c2, c3 := window[i-2], window[i-1], window[i]
		if !c1.Valid() || !c2.Valid() || !c3.Valid() {
			continue
		}

		var z fvgZone
		switch {
		case c3.Low > c1.High:
			z = fvgZone{direction: models.Bullish, low: c1.High, high: c3.Low}
			z.sizePct = (c3.Low - c1.High) / c1.High
		case c3.High < c1.Low:
			z = fvgZone{direction: models.Bearish, low: c3.High, high: c1.Low}
			z.sizePct = (c1.Low - c3.High) / c1.Low
		default:
			continue
		}
		if z.sizePct <= gc.MinGapPct {
			continue
		}

		volRatio := features.VolumeRatio(window, i-1, gc.VolumeWindow)
		z.volumeConfirmed = volRatio > gc.VolumeConfirmRatio
		z.age = len(window) - 1 - i

		center := (z.low + z.high) / 2
		z.nearPrice = math.Abs(currentPrice-center)/center < gc.ProximityPct
		z.filled = gapFilled(window, i, z.low, z.high)

		z.strength = math.Min(z.sizePct*100, 10)
		if z.volumeConfirmed {
			z.strength *= 1.5
		}
		if z.nearPrice {
			z.strength *= 1.3
		}
		z.strength = math.Min(z.strength, 15)

		zones = append(zones, z)
	}

	var bullPts, bearPts float64
	var unfilled, near int
	for _, z := range zones {
		if z.filled || z.age > gc.MaxAgeCandles {
			continue
		}
		unfilled++
		if z.nearPrice {
			near++
		}
		pts := z.strength * 1.8
		if z.volumeConfirmed {
			pts *= 1.5
		}
		if z.nearPrice {
			pts *= 2
		}
		if z.direction == models.Bullish {
			bullPts += pts
		} else {
			bearPts += pts
		}
	}

	total := bullPts + bearPts
	if total == 0 {
		return models.NeutralResult(models.DetectorGap, "")
	}
	dir := models.Bullish
	dominant := bullPts
	if bearPts > bullPts {
		dir = models.Bearish
		dominant = bearPts
	}
	return models.DetectorResult{
		Kind:      models.DetectorGap,
		Direction: dir,
		Strength:  features.Clamp01(dominant / 22),
		Metadata: map[string]interface{}{
			"unfilled_gaps": unfilled,
			"near_gaps":     near,
			"bull_points":   bullPts,
			"bear_points":   bearPts,
		},
	}
}

// gapFilled reports whether later price action traded through the gap,
// either fully or covering at least 70% of its range.
func gapFilled(window []models.Candle, gapIndex int, gapLow, gapHigh float64) bool {
	gapRange := gapHigh - gapLow
	for i := gapIndex + 1; i < len(window); i++ {
		lo, hi := window[i].Low, window[i].High
		if lo <= gapLow && hi >= gapHigh {
			return true
		}
		overlap := math.Min(hi, gapHigh) - math.Max(lo, gapLow)
		if overlap > gapRange*0.7 {
			return true
		}
	}
	return false
}
