package detectors

import (
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/pkg/config"
)

// testConfig mirrors the shipped detector defaults.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Detectors.Gap.MinGapPct = 0.005
	cfg.Detectors.Gap.ProximityPct = 0.02
	cfg.Detectors.Gap.VolumeConfirmRatio = 1.5
	cfg.Detectors.Gap.VolumeWindow = 20
	cfg.Detectors.Gap.MaxAgeCandles = 50
	cfg.Detectors.Pattern.TolerancePct = 0.01
	cfg.Detectors.Pattern.MinConfidence = 70
	cfg.Detectors.Pattern.PivotDistance = 3
	cfg.Detectors.Pattern.Lookback = 50
	cfg.Detectors.Trendline.Window = 20
	cfg.Detectors.Trendline.BreakoutMarginPct = 0.01
	cfg.Detectors.Trendline.PivotDistance = 2
	cfg.Detectors.Volume.Window = 10
	cfg.Detectors.Volume.SpikeRatio = 1.2
	cfg.Detectors.Volume.ExplosiveRatio = 2.0
	cfg.Detectors.Volume.SaturationRatio = 5.0
	cfg.Detectors.Momentum.ChangeWindow = 5
	cfg.Detectors.Momentum.ATRPeriod = 14
	return cfg
}

var testBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func candleAt(i int, o, h, l, c, v float64) models.Candle {
	return models.Candle{
		OpenTime: testBase.Add(time.Duration(i) * time.Hour),
		Open:     o, High: h, Low: l, Close: c,
		Volume: v,
	}
}
