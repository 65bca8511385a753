package detectors

import (
	"SwingScan/internal/domain/models"
	"SwingScan/pkg/config"
)

// Detector evaluates one candle window and reports a directional read
// with normalized strength in [0,1]. Evaluation is pure: no state is
// kept between calls and a window too short for the technique yields a
// NEUTRAL result with zero strength, never an error.
type Detector interface {
	Kind() models.DetectorKind
	Evaluate(window []models.Candle) models.DetectorResult
}

// All returns the fixed detector set in evaluation order.
func All(cfg *config.Config) []Detector {
	return []Detector{
		NewGapDetector(cfg),
		NewPatternDetector(cfg),
		NewTrendlineDetector(cfg),
		NewVolumeDetector(cfg),
		NewMomentumDetector(cfg),
	}
}
