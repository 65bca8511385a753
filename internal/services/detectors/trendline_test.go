package detectors

import (
	"testing"

	"SwingScan/internal/domain/models"
)

// channelWindow builds n bars inside a flat 90-100 channel; the last bar
// can punch out of it.
func channelWindow(n int, lastHigh, lastLow, lastClose float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = candleAt(i, 95, 100, 90, 95, 10)
	}
	out[n-1] = candleAt(n-1, 95, lastHigh, lastLow, lastClose, 10)
	return out
}

func TestTrendlineDetectorResistanceBreakout(t *testing.T) {
	d := NewTrendlineDetector(testConfig())
	res := d.Evaluate(channelWindow(20, 102.1, 94, 102))
	if res.Direction != models.Bullish || res.Strength != 1 {
		t.Fatalf("expected bullish breakout, got %s %v", res.Direction, res.Strength)
	}
	if res.Metadata["breakout"] != "resistance" {
		t.Fatalf("unexpected breakout metadata %v", res.Metadata["breakout"])
	}
}

func TestTrendlineDetectorSupportBreakout(t *testing.T) {
	d := NewTrendlineDetector(testConfig())
	res := d.Evaluate(channelWindow(20, 96, 87.5, 87.8))
	if res.Direction != models.Bearish || res.Strength != 1 {
		t.Fatalf("expected bearish breakdown, got %s %v", res.Direction, res.Strength)
	}
	if res.Metadata["breakout"] != "support" {
		t.Fatalf("unexpected breakout metadata %v", res.Metadata["breakout"])
	}
}

func TestTrendlineDetectorPivotFit(t *testing.T) {
	d := NewTrendlineDetector(testConfig())
	// Three equal pivot highs at 110 define the resistance line; the bars
	// between them top out at 100, so a raw fit would sit far below it.
	out := make([]models.Candle, 20)
	for i := 0; i < 19; i++ {
		high := 100.0
		if i == 4 || i == 9 || i == 14 {
			high = 110
		}
		out[i] = candleAt(i, 95, high, 90, 95, 10)
	}
	out[19] = candleAt(19, 100.5, 112.5, 100, 112, 10)

	res := d.Evaluate(out)
	if res.Direction != models.Bullish || res.Strength != 1 {
		t.Fatalf("expected pivot-line breakout, got %s %v", res.Direction, res.Strength)
	}
	if got := res.Metadata["pivots_high"]; got != 3 {
		t.Fatalf("pivots_high = %v", got)
	}
	// The line runs through the pivots, not the raw highs.
	if got := res.Metadata["resistance"].(float64); got != 110 {
		t.Fatalf("resistance = %v", got)
	}
}

func TestTrendlineDetectorNoBreakout(t *testing.T) {
	d := NewTrendlineDetector(testConfig())
	res := d.Evaluate(channelWindow(20, 100, 90, 95))
	if res.Direction != models.Neutral {
		t.Fatalf("expected neutral inside the channel, got %s", res.Direction)
	}
	// Perfectly flat channel lines fit with r2 = 1, contributing at most
	// half scale without a breakout.
	if res.Strength != 0.5 {
		t.Fatalf("expected half-scale strength, got %v", res.Strength)
	}
}

func TestTrendlineDetectorShortWindow(t *testing.T) {
	d := NewTrendlineDetector(testConfig())
	res := d.Evaluate(channelWindow(10, 100, 90, 95))
	if res.Direction != models.Neutral || res.Strength != 0 {
		t.Fatalf("short window must be neutral")
	}
}
