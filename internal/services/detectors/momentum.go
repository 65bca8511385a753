package detectors

import (
	"math"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/services/features"
	"SwingScan/pkg/config"
)

// MomentumDetector measures short-term price momentum: the mean of the
// most recent closes against the mean of the preceding block of equal
// size. Strength is the drift normalized by the average true range, so
// equal percentage moves score higher on quiet tape than on choppy
// tape; windows too short for the ATR period fall back to a
// price-relative scale.
type MomentumDetector struct {
	cfg *config.Config
}

func NewMomentumDetector(cfg *config.Config) *MomentumDetector {
	return &MomentumDetector{cfg: cfg}
}

func (d *MomentumDetector) Kind() models.DetectorKind { return models.DetectorMomentum }

func (d *MomentumDetector) Evaluate(window []models.Candle) models.DetectorResult {
	mc := d.cfg.Detectors.Momentum
	n := mc.ChangeWindow
	if len(window) < 2*n {
		return models.NeutralResult(models.DetectorMomentum, "window too short for momentum")
	}

	closes := features.Closes(window)
	recent := features.Mean(closes[len(closes)-n:])
	previous := features.Mean(closes[len(closes)-2*n : len(closes)-n])
	if previous <= 0 {
		return models.NeutralResult(models.DetectorMomentum, "invalid baseline price")
	}

	change := recent - previous
	momentum := change / previous
	if momentum == 0 {
		return models.NeutralResult(models.DetectorMomentum, "")
	}

	dir := models.Bullish
	if momentum < 0 {
		dir = models.Bearish
	}
	meta := map[string]interface{}{"momentum_pct": momentum}
	strength := features.Clamp01(math.Abs(momentum) * 10)
	if atr := features.ATR(window, mc.ATRPeriod); atr > 0 {
		meta["atr"] = atr
		// Drift of one ATR per candle between the two blocks saturates.
		strength = features.Clamp01(math.Abs(change) / (atr * float64(n)))
	}
	return models.DetectorResult{
		Kind:      models.DetectorMomentum,
		Direction: dir,
		Strength:  strength,
		Metadata:  meta,
	}
}
