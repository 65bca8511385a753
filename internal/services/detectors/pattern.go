package detectors

import (
	"math"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/services/features"
	"SwingScan/pkg/config"
)

type chartPattern struct {
	name         string
	direction    models.Direction
	strength     float64 // [0,10]
	confidence   float64 // [0,100]
	target       float64 // measured-move projection
	invalidation float64 // level that voids the pattern
}

// PatternDetector recognizes reversal and continuation formations built
// from significant pivots: double/triple tops and bottoms, head and
// shoulders, flags.
type PatternDetector struct {
	cfg *config.Config
}

func NewPatternDetector(cfg *config.Config) *PatternDetector {
	return &PatternDetector{cfg: cfg}
}

func (d *PatternDetector) Kind() models.DetectorKind { return models.DetectorPattern }

func (d *PatternDetector) Evaluate(window []models.Candle) models.DetectorResult {
	pc := d.cfg.Detectors.Pattern
	if len(window) < pc.Lookback/2 {
		return models.NeutralResult(models.DetectorPattern, "window too short for pattern detection")
	}
	recent := window
	if len(recent) > pc.Lookback {
		recent = recent[len(recent)-pc.Lookback:]
	}

	highs := features.Highs(recent)
	lows := features.Lows(recent)
	closes := features.Closes(recent)
	peaks := features.FindPeaks(highs, pc.PivotDistance, pc.TolerancePct)
	troughs := features.FindTroughs(lows, pc.PivotDistance, pc.TolerancePct)

	var patterns []chartPattern
	patterns = append(patterns, d.doubleTriple(peaks, troughs)...)
	patterns = append(patterns, d.headShoulders(peaks)...)
	patterns = append(patterns, d.flags(closes)...)

	var bullPts, bearPts float64
	var names []string
	var matches []map[string]interface{}
	for _, p := range patterns {
		if p.confidence <= pc.MinConfidence {
			continue
		}
		pts := p.strength * 1.8 * (p.confidence / 100)
		if p.direction == models.Bullish {
			bullPts += pts
		} else {
			bearPts += pts
		}
		names = append(names, p.name)
		matches = append(matches, map[string]interface{}{
			"name":         p.name,
			"direction":    string(p.direction),
			"confidence":   p.confidence,
			"target":       p.target,
			"invalidation": p.invalidation,
		})
	}

	total := bullPts + bearPts
	if total == 0 {
		return models.NeutralResult(models.DetectorPattern, "")
	}
	dir := models.Bullish
	dominant := bullPts
	if bearPts > bullPts {
		dir = models.Bearish
		dominant = bearPts
	}
	return models.DetectorResult{
		Kind:      models.DetectorPattern,
		Direction: dir,
		Strength:  features.Clamp01(dominant / 22),
		Metadata: map[string]interface{}{
			"patterns":    names,
			"matches":     matches,
			"bull_points": bullPts,
			"bear_points": bearPts,
		},
	}
}

// doubleTriple finds double/triple tops between adjacent peaks and
// double/triple bottoms between adjacent troughs. A valid pair needs
// similar extremes within tolerance and at least 10% retracement to
// the opposing pivot between them.
func (d *PatternDetector) doubleTriple(peaks, troughs []features.Pivot) []chartPattern {
	tol := d.cfg.Detectors.Pattern.TolerancePct
	var out []chartPattern

	for i := 0; i+1 < len(peaks); i++ {
		p1, p2 := peaks[i], peaks[i+1]
		heightDiff := math.Abs(p1.Value-p2.Value) / p1.Value
		if heightDiff >= tol {
			continue
		}
		trough, ok := lowestBetween(troughs, p1.Index, p2.Index)
		if !ok {
			continue
		}
		retracement := (p1.Value - trough) / p1.Value
		if retracement <= 0.1 {
			continue
		}
		name := "double_top"
		if i+2 < len(peaks) && math.Abs(p1.Value-peaks[i+2].Value)/p1.Value < tol {
			name = "triple_top"
		}
		out = append(out, chartPattern{
			name:       name,
			direction:  models.Bearish,
			strength:   math.Min((1-heightDiff+retracement)*5, 10),
			confidence: math.Min((1-heightDiff)*100, 95),
			// Measured move: the pattern height projected below the neckline.
			target:       trough - (math.Max(p1.Value, p2.Value) - trough),
			invalidation: math.Max(p1.Value, p2.Value),
		})
	}

	for i := 0; i+1 < len(troughs); i++ {
		t1, t2 := troughs[i], troughs[i+1]
		depthDiff := math.Abs(t1.Value-t2.Value) / t1.Value
		if depthDiff >= tol {
			continue
		}
		peak, ok := highestBetween(peaks, t1.Index, t2.Index)
		if !ok {
			continue
		}
		retracement := (peak - t1.Value) / t1.Value
		if retracement <= 0.1 {
			continue
		}
		name := "double_bottom"
		if i+2 < len(troughs) && math.Abs(t1.Value-troughs[i+2].Value)/t1.Value < tol {
			name = "triple_bottom"
		}
		out = append(out, chartPattern{
			name:         name,
			direction:    models.Bullish,
			strength:     math.Min((1-depthDiff+retracement)*5, 10),
			confidence:   math.Min((1-depthDiff)*100, 95),
			target:       peak + (peak - math.Min(t1.Value, t2.Value)),
			invalidation: math.Min(t1.Value, t2.Value),
		})
	}
	return out
}

// headShoulders checks every run of three consecutive peaks for a head
// above two roughly equal shoulders.
func (d *PatternDetector) headShoulders(peaks []features.Pivot) []chartPattern {
	tol := d.cfg.Detectors.Pattern.TolerancePct
	var out []chartPattern
	for i := 0; i+2 < len(peaks); i++ {
		left, head, right := peaks[i], peaks[i+1], peaks[i+2]
		if head.Value <= left.Value || head.Value <= right.Value {
			continue
		}
		shoulderDiff := math.Abs(left.Value-right.Value) / left.Value
		if shoulderDiff >= tol*2 {
			continue
		}
		// The shoulder line stands in for the neckline.
		neck := math.Min(left.Value, right.Value)
		out = append(out, chartPattern{
			name:         "head_and_shoulders",
			direction:    models.Bearish,
			strength:     math.Min((1-shoulderDiff+0.5)*5, 10),
			confidence:   math.Min((1-shoulderDiff)*80, 90),
			target:       neck - (head.Value - neck),
			invalidation: head.Value,
		})
	}
	return out
}

// flags finds a strong directional move (flagpole, >5% over 10 bars)
// followed by a tight consolidation (<3% range over 5 bars).
func (d *PatternDetector) flags(closes []float64) []chartPattern {
	var out []chartPattern
	if len(closes) < 15 {
		return out
	}
	for i := 10; i+5 <= len(closes); i++ {
		start, end := closes[i-10], closes[i]
		if start <= 0 {
			continue
		}
		move := (end - start) / start
		if math.Abs(move) <= 0.05 {
			continue
		}
		cons := closes[i : i+5]
		lo, hi := cons[0], cons[0]
		for _, v := range cons[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo <= 0 {
			continue
		}
		consRange := (hi - lo) / lo
		if consRange >= 0.03 {
			continue
		}
		dir := models.Bullish
		name := "bull_flag"
		invalidation := lo
		if move < 0 {
			dir = models.Bearish
			name = "bear_flag"
			invalidation = hi
		}
		out = append(out, chartPattern{
			name:       name,
			direction:  dir,
			strength:   math.Min(math.Abs(move)*50, 10),
			confidence: math.Min((1-consRange)*70, 85),
			// Flagpole length extended from the consolidation.
			target:       end + (end - start),
			invalidation: invalidation,
		})
	}
	return out
}

func lowestBetween(pivots []features.Pivot, from, to int) (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, p := range pivots {
		if p.Index > from && p.Index < to && p.Value < best {
			best = p.Value
			found = true
		}
	}
	return best, found
}

func highestBetween(pivots []features.Pivot, from, to int) (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, p := range pivots {
		if p.Index > from && p.Index < to && p.Value > best {
			best = p.Value
			found = true
		}
	}
	return best, found
}
