package detectors

import (
	"math"
	"testing"

	"SwingScan/internal/domain/models"
)

func momentumWindow(firstClose, lastClose float64) []models.Candle {
	out := make([]models.Candle, 10)
	for i := range out {
		price := firstClose
		if i >= 5 {
			price = lastClose
		}
		out[i] = candleAt(i, price, price+1, price-1, price, 10)
	}
	return out
}

func TestMomentumDetectorBullish(t *testing.T) {
	d := NewMomentumDetector(testConfig())
	// 10% block-to-block change saturates strength at 1.
	res := d.Evaluate(momentumWindow(100, 110))
	if res.Direction != models.Bullish {
		t.Fatalf("expected bullish, got %s", res.Direction)
	}
	if res.Strength != 1 {
		t.Fatalf("expected saturated strength, got %v", res.Strength)
	}
	pct, _ := res.Metadata["momentum_pct"].(float64)
	if math.Abs(pct-0.1) > 1e-9 {
		t.Fatalf("momentum_pct = %v", pct)
	}
}

func TestMomentumDetectorBearish(t *testing.T) {
	d := NewMomentumDetector(testConfig())
	res := d.Evaluate(momentumWindow(100, 98))
	if res.Direction != models.Bearish {
		t.Fatalf("expected bearish, got %s", res.Direction)
	}
	// 2% drop scales to 0.2.
	if math.Abs(res.Strength-0.2) > 1e-9 {
		t.Fatalf("strength = %v", res.Strength)
	}
}

func TestMomentumDetectorATRNormalized(t *testing.T) {
	d := NewMomentumDetector(testConfig())
	// Steady 0.1 drift per candle on bars with a constant true range of
	// 1.0: ATR is exactly 1, the block means sit 0.5 apart, and strength
	// normalizes to 0.5 / (1 * 5).
	out := make([]models.Candle, 20)
	for i := range out {
		price := 100 + float64(i)*0.1
		out[i] = candleAt(i, price, price+0.5, price-0.5, price, 10)
	}
	res := d.Evaluate(out)
	if res.Direction != models.Bullish {
		t.Fatalf("expected bullish, got %s", res.Direction)
	}
	if math.Abs(res.Strength-0.1) > 1e-6 {
		t.Fatalf("strength = %v", res.Strength)
	}
	atr, _ := res.Metadata["atr"].(float64)
	if math.Abs(atr-1) > 1e-6 {
		t.Fatalf("atr = %v", atr)
	}
}

func TestMomentumDetectorFlat(t *testing.T) {
	d := NewMomentumDetector(testConfig())
	res := d.Evaluate(momentumWindow(100, 100))
	if res.Direction != models.Neutral || res.Strength != 0 {
		t.Fatalf("flat closes must be neutral, got %s %v", res.Direction, res.Strength)
	}
}

func TestMomentumDetectorShortWindow(t *testing.T) {
	d := NewMomentumDetector(testConfig())
	res := d.Evaluate(momentumWindow(100, 110)[:8])
	if res.Direction != models.Neutral || res.Strength != 0 {
		t.Fatalf("short window must be neutral")
	}
}
