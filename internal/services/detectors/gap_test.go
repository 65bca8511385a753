package detectors

import (
	"testing"

	"SwingScan/internal/domain/models"
)

func TestGapDetectorBullish(t *testing.T) {
	d := NewGapDetector(testConfig())
	// Third candle's low (103) clears the first candle's high (100): a
	// 3% bullish gap between 100 and 103.
	window := []models.Candle{
		candleAt(0, 99, 100, 98, 99.5, 10),
		candleAt(1, 100.5, 103, 100.2, 102.8, 10),
		candleAt(2, 103.2, 104.5, 103, 104, 10),
	}
	res := d.Evaluate(window)
	if res.Direction != models.Bullish {
		t.Fatalf("expected bullish, got %s", res.Direction)
	}
	if res.Strength <= 0 {
		t.Fatalf("expected positive strength, got %v", res.Strength)
	}
	if got := res.Metadata["unfilled_gaps"]; got != 1 {
		t.Fatalf("unfilled_gaps = %v", got)
	}
}

func TestGapDetectorBearish(t *testing.T) {
	d := NewGapDetector(testConfig())
	// Third candle's high (97) stays under the first candle's low (100).
	window := []models.Candle{
		candleAt(0, 101, 102, 100, 100.5, 10),
		candleAt(1, 99.5, 99.8, 97.2, 97.4, 10),
		candleAt(2, 96.8, 97, 95.5, 96, 10),
	}
	res := d.Evaluate(window)
	if res.Direction != models.Bearish {
		t.Fatalf("expected bearish, got %s", res.Direction)
	}
	if res.Strength <= 0 {
		t.Fatalf("expected positive strength, got %v", res.Strength)
	}
}

// mirrorCandle reflects a candle around a pivot price, swapping the
// roles of high and low.
func mirrorCandle(c models.Candle, pivot float64) models.Candle {
	return models.Candle{
		OpenTime: c.OpenTime,
		Open:     2*pivot - c.Open,
		High:     2*pivot - c.Low,
		Low:      2*pivot - c.High,
		Close:    2*pivot - c.Close,
		Volume:   c.Volume,
	}
}

func TestGapDetectorMirrorFlip(t *testing.T) {
	d := NewGapDetector(testConfig())
	window := []models.Candle{
		candleAt(0, 99, 100, 98, 99.5, 10),
		candleAt(1, 100.5, 103, 100.2, 102.8, 10),
		candleAt(2, 103.2, 104.5, 103, 104, 10),
	}
	// Reflect around the gap boundary so the mirrored series carries a
	// bearish gap of identical size.
	mirrored := make([]models.Candle, len(window))
	for i, c := range window {
		mirrored[i] = mirrorCandle(c, 100)
	}

	bull := d.Evaluate(window)
	bear := d.Evaluate(mirrored)
	if bull.Direction != models.Bullish || bear.Direction != models.Bearish {
		t.Fatalf("mirroring must flip direction: %s vs %s", bull.Direction, bear.Direction)
	}
	if bull.Strength != bear.Strength {
		t.Fatalf("mirroring must preserve strength: %v vs %v", bull.Strength, bear.Strength)
	}
}

func TestGapDetectorFilledGapIgnored(t *testing.T) {
	d := NewGapDetector(testConfig())
	// Same bullish gap as above, then a candle trading back through the
	// whole 100-103 zone.
	window := []models.Candle{
		candleAt(0, 99, 100, 98, 99.5, 10),
		candleAt(1, 100.5, 103, 100.2, 102.8, 10),
		candleAt(2, 103.2, 104.5, 103, 104, 10),
		candleAt(3, 104, 104.2, 99.5, 100, 10),
	}
	res := d.Evaluate(window)
	if res.Direction != models.Neutral || res.Strength != 0 {
		t.Fatalf("filled gap must not score, got %s %v", res.Direction, res.Strength)
	}
}

func TestGapDetectorTinyGapIgnored(t *testing.T) {
	d := NewGapDetector(testConfig())
	// A 0.2% gap stays under the minimum size.
	window := []models.Candle{
		candleAt(0, 99.5, 100, 99, 99.8, 10),
		candleAt(1, 100, 100.3, 99.9, 100.2, 10),
		candleAt(2, 100.25, 100.6, 100.2, 100.5, 10),
	}
	res := d.Evaluate(window)
	if res.Direction != models.Neutral {
		t.Fatalf("tiny gap must not score, got %s", res.Direction)
	}
}

func TestGapDetectorShortWindow(t *testing.T) {
	d := NewGapDetector(testConfig())
	res := d.Evaluate([]models.Candle{candleAt(0, 100, 101, 99, 100.5, 10)})
	if res.Direction != models.Neutral || res.Strength != 0 {
		t.Fatalf("short window must be neutral")
	}
	if res.Metadata["warning"] == nil {
		t.Fatalf("expected warning for short window")
	}
}
