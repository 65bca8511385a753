package detectors

import (
	"SwingScan/internal/domain/models"
	"SwingScan/internal/services/features"
	"SwingScan/pkg/config"
)

// TrendlineDetector fits regression lines through recent pivot highs
// (resistance) and pivot lows (support) and reports breakouts beyond
// the projected levels, scored by the broken line's fit quality. When a
// window yields too few pivots the fit falls back to the raw series.
// Without a breakout the channel slope contributes at most a half-scale
// lean.
type TrendlineDetector struct {
	cfg *config.Config
}

func NewTrendlineDetector(cfg *config.Config) *TrendlineDetector {
	return &TrendlineDetector{cfg: cfg}
}

func (d *TrendlineDetector) Kind() models.DetectorKind { return models.DetectorTrendline }

func (d *TrendlineDetector) Evaluate(window []models.Candle) models.DetectorResult {
	tc := d.cfg.Detectors.Trendline
	if len(window) < tc.Window {
		return models.NeutralResult(models.DetectorTrendline, "window too short for trendline fit")
	}
	recent := window[len(window)-tc.Window:]

	// Fit on the bars before the latest: the candidate breakout bar must
	// not bend the line it is tested against.
	hist := recent[:len(recent)-1]
	highs := features.Highs(hist)
	lows := features.Lows(hist)
	highPivots := features.FindPeaks(highs, tc.PivotDistance, 0)
	lowPivots := features.FindTroughs(lows, tc.PivotDistance, 0)

	highFit, okH := fitLevels(highPivots, highs)
	lowFit, okL := fitLevels(lowPivots, lows)
	if !okH || !okL {
		return models.NeutralResult(models.DetectorTrendline, "degenerate regression inputs")
	}

	// Project both lines one step past the fitted range, onto the latest bar.
	currentX := float64(len(hist))
	resistance := highFit.At(currentX)
	support := lowFit.At(currentX)
	if resistance <= 0 || support <= 0 {
		return models.NeutralResult(models.DetectorTrendline, "invalid projected levels")
	}

	price := recent[len(recent)-1].Close
	margin := tc.BreakoutMarginPct
	meta := map[string]interface{}{
		"resistance":     resistance,
		"support":        support,
		"r_squared_high": highFit.R2,
		"r_squared_low":  lowFit.R2,
		"pivots_high":    len(highPivots),
		"pivots_low":     len(lowPivots),
	}

	// Breakout strength is the broken line's fit quality: a clean,
	// well-respected line broken is a stronger read than a sloppy one.
	switch {
	case price > resistance*(1+margin):
		meta["breakout"] = "resistance"
		return models.DetectorResult{
			Kind:      models.DetectorTrendline,
			Direction: models.Bullish,
			Strength:  features.Clamp01(highFit.R2),
			Metadata:  meta,
		}
	case price < support*(1-margin):
		meta["breakout"] = "support"
		return models.DetectorResult{
			Kind:      models.DetectorTrendline,
			Direction: models.Bearish,
			Strength:  features.Clamp01(lowFit.R2),
			Metadata:  meta,
		}
	}

	// No breakout: when both lines slope the same way the channel itself
	// leans that way, at half scale. Mixed or flat slopes stay neutral.
	dir := models.Neutral
	if highFit.Slope > 0 && lowFit.Slope > 0 {
		dir = models.Bullish
	} else if highFit.Slope < 0 && lowFit.Slope < 0 {
		dir = models.Bearish
	}
	r2avg := (highFit.R2 + lowFit.R2) / 2
	return models.DetectorResult{
		Kind:      models.DetectorTrendline,
		Direction: dir,
		Strength:  features.Clamp01(r2avg * 0.5),
		Metadata:  meta,
	}
}

// fitLevels prefers a line through the pivot extremes; with fewer than
// two pivots it falls back to a fit over the raw series.
func fitLevels(pivots []features.Pivot, values []float64) (features.Regression, bool) {
	if fit, ok := features.FitPivots(pivots); ok {
		return fit, ok
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	return features.LinearFit(xs, values)
}
