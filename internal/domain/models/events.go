package models

import "time"

// SignalConfirmed is emitted exactly once per pipeline reaching CONFIRMED.
// External alert/notification consumers subscribe to this event; nothing
// inside the core delivers alerts itself.
type SignalConfirmed struct {
	SignalID        string        `json:"signal_id"`
	Symbol          string        `json:"symbol"`
	Direction       Direction     `json:"direction"`
	CompositeScore  float64       `json:"composite_score"`
	FinalConfidence float64       `json:"final_confidence"`
	ReferencePrice  float64       `json:"reference_price"`
	StageHistory    []StageResult `json:"stage_history"`
	DetectedAt      time.Time     `json:"detected_at"`
	ConfirmedAt     time.Time     `json:"confirmed_at"`
}
