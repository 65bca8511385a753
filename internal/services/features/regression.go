package features

import "math"

// Regression is a least-squares line fit over (x, y) pairs.
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearFit fits y = slope*x + intercept and reports the fit quality.
// Returns ok=false for fewer than two points or zero x-variance.
func LinearFit(xs, ys []float64) (Regression, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return Regression{}, false
	}
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
		sumYY += ys[i] * ys[i]
	}
	fn := float64(n)
	denX := fn*sumXX - sumX*sumX
	if denX == 0 {
		return Regression{}, false
	}
	slope := (fn*sumXY - sumX*sumY) / denX
	intercept := (sumY - slope*sumX) / fn

	// r^2 via correlation; a flat y-series yields a perfect horizontal fit
	denY := fn*sumYY - sumY*sumY
	r2 := 1.0
	if denY > 0 {
		r := (fn*sumXY - sumX*sumY) / math.Sqrt(denX*denY)
		r2 = r * r
	}
	if math.IsNaN(slope) || math.IsNaN(intercept) || math.IsNaN(r2) {
		return Regression{}, false
	}
	return Regression{Slope: slope, Intercept: intercept, R2: r2}, true
}

// At evaluates the fitted line at x.
func (r Regression) At(x float64) float64 { return r.Slope*x + r.Intercept }

// FitPivots fits a line through pivot points (index as x, value as y).
func FitPivots(pivots []Pivot) (Regression, bool) {
	if len(pivots) < 2 {
		return Regression{}, false
	}
	xs := make([]float64, len(pivots))
	ys := make([]float64, len(pivots))
	for i, p := range pivots {
		xs[i] = float64(p.Index)
		ys[i] = p.Value
	}
	return LinearFit(xs, ys)
}
