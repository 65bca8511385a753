package models

import (
	"testing"
	"time"
)

func TestFinalConfidence(t *testing.T) {
	rec := &ConfirmationRecord{}
	if got := rec.FinalConfidence(); got != 0 {
		t.Fatalf("empty history confidence %v", got)
	}
	rec.StageHistory = []StageResult{
		{StageIndex: 0, Confidence: 60},
		{StageIndex: 1, Confidence: 80},
		{StageIndex: 2, Confidence: 100},
	}
	if got := rec.FinalConfidence(); got != 80 {
		t.Fatalf("expected average 80, got %v", got)
	}
}

func TestConfirmationRecordClone(t *testing.T) {
	rec := &ConfirmationRecord{
		SignalID:     "abc",
		State:        StatePending,
		StageHistory: []StageResult{{StageIndex: 0, Confidence: 75}},
	}
	clone := rec.Clone()
	clone.StageHistory[0].Confidence = 1
	if rec.StageHistory[0].Confidence != 75 {
		t.Fatalf("clone shares stage history")
	}
}

func TestConfirmationStateTerminal(t *testing.T) {
	if StatePending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	if !StateConfirmed.Terminal() || !StateRejected.Terminal() {
		t.Fatalf("confirmed and rejected must be terminal")
	}
}

func TestCooldownEntryBoundary(t *testing.T) {
	armed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := CooldownEntry{Symbol: "BTCUSDT", ArmedAt: armed, ExpiresAt: armed.Add(30 * time.Minute)}

	if !e.Active(armed.Add(29 * time.Minute)) {
		t.Fatalf("expected active before expiry")
	}
	// The boundary is exclusive: a check exactly at expiry passes.
	if e.Active(armed.Add(30 * time.Minute)) {
		t.Fatalf("expected inactive at expiry")
	}
	if got := e.Remaining(armed.Add(10 * time.Minute)); got != 20*time.Minute {
		t.Fatalf("remaining %v", got)
	}
	if got := e.Remaining(armed.Add(time.Hour)); got != 0 {
		t.Fatalf("expired remaining %v", got)
	}
}

func TestDirectionOpposite(t *testing.T) {
	if Bullish.Opposite() != Bearish || Bearish.Opposite() != Bullish || Neutral.Opposite() != Neutral {
		t.Fatalf("unexpected opposite mapping")
	}
}
