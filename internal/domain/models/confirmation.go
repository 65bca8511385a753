package models

import "time"

// ConfirmationState is the lifecycle state of a confirmation record.
type ConfirmationState string

const (
	StatePending   ConfirmationState = "PENDING"
	StateConfirmed ConfirmationState = "CONFIRMED"
	StateRejected  ConfirmationState = "REJECTED"
)

// Terminal reports whether no further stage evaluation may happen.
func (s ConfirmationState) Terminal() bool {
	return s == StateConfirmed || s == StateRejected
}

// StageResult records the outcome of one evaluated confirmation stage.
type StageResult struct {
	StageIndex  int       `json:"stage_index"`
	Confidence  float64   `json:"confidence"` // percent of criteria met [0,100]
	Passed      bool      `json:"passed"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	Detail      string    `json:"detail,omitempty"`
}

// ConfirmationRecord tracks one signal through the staged confirmation
// pipeline. Owned exclusively by the scan loop; readers get copies.
type ConfirmationRecord struct {
	SignalID     string            `json:"signal_id"`
	Signal       Signal            `json:"signal"`
	State        ConfirmationState `json:"state"`
	CurrentStage int               `json:"current_stage"` // next stage to evaluate
	StageHistory []StageResult     `json:"stage_history"`
	Retries      int               `json:"retries"` // deferrals consumed on the current stage
	RejectReason string            `json:"reject_reason,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ResolvedAt   time.Time         `json:"resolved_at,omitempty"`
}

// FinalConfidence is the simple average of evaluated stage confidences.
// Reported alongside CONFIRMED; zero until at least one stage ran.
func (r *ConfirmationRecord) FinalConfidence() float64 {
	if len(r.StageHistory) == 0 {
		return 0
	}
	var sum float64
	for _, sr := range r.StageHistory {
		sum += sr.Confidence
	}
	return sum / float64(len(r.StageHistory))
}

// Clone returns a deep copy safe to hand to readers.
func (r *ConfirmationRecord) Clone() ConfirmationRecord {
	out := *r
	out.StageHistory = make([]StageResult, len(r.StageHistory))
	copy(out.StageHistory, r.StageHistory)
	return out
}

// CooldownEntry suppresses new signals for a symbol, any direction.
type CooldownEntry struct {
	Symbol    string    `json:"symbol"`
	ArmedAt   time.Time `json:"armed_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the cooldown still blocks signal creation at now.
func (e CooldownEntry) Active(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Remaining returns time left on the cooldown, zero when expired.
func (e CooldownEntry) Remaining(now time.Time) time.Duration {
	if !e.Active(now) {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}
