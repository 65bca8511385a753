package detectors

import (
	"SwingScan/internal/domain/models"
	"SwingScan/internal/services/features"
	"SwingScan/pkg/config"
)

// VolumeDetector compares the latest bar's volume to its rolling average.
// A spike votes with the short-term price direction; strength ramps from
// the spike threshold and saturates at the saturation ratio.
type VolumeDetector struct {
	cfg *config.Config
}

func NewVolumeDetector(cfg *config.Config) *VolumeDetector {
	return &VolumeDetector{cfg: cfg}
}

func (d *VolumeDetector) Kind() models.DetectorKind { return models.DetectorVolume }

func (d *VolumeDetector) Evaluate(window []models.Candle) models.DetectorResult {
	vc := d.cfg.Detectors.Volume
	if len(window) < vc.Window+1 {
		return models.NeutralResult(models.DetectorVolume, "window too short for volume baseline")
	}

	last := len(window) - 1
	ratio := features.VolumeRatio(window, last, vc.Window)
	if ratio < vc.SpikeRatio {
		return models.NeutralResult(models.DetectorVolume, "")
	}

	// Direction follows the short-term price move the spike accompanies.
	lookback := 5
	if last < lookback {
		lookback = last
	}
	dir := models.Neutral
	cur := window[last].Close
	prev := window[last-lookback].Close
	switch {
	case cur > prev:
		dir = models.Bullish
	case cur < prev:
		dir = models.Bearish
	default:
		return models.NeutralResult(models.DetectorVolume, "flat price under volume spike")
	}

	strength := features.Clamp01((ratio - vc.SpikeRatio) / (vc.SaturationRatio - vc.SpikeRatio))
	return models.DetectorResult{
		Kind:      models.DetectorVolume,
		Direction: dir,
		Strength:  strength,
		Metadata: map[string]interface{}{
			"volume_ratio": ratio,
			"explosive":    ratio >= vc.ExplosiveRatio,
		},
	}
}
