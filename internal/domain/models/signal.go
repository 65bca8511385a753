package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the directional read of a detector or signal.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Opposite returns the mirrored direction; NEUTRAL maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Neutral
	}
}

// DetectorKind identifies one of the fixed technical detectors.
type DetectorKind string

const (
	DetectorGap       DetectorKind = "fvg"
	DetectorPattern   DetectorKind = "pattern"
	DetectorTrendline DetectorKind = "trendline"
	DetectorVolume    DetectorKind = "volume"
	DetectorMomentum  DetectorKind = "momentum"
)

// DetectorResult is the output of one detector over one candle window.
// Produced fresh each evaluation; never persisted.
type DetectorResult struct {
	Kind      DetectorKind           `json:"kind"`
	Direction Direction              `json:"direction"`
	Strength  float64                `json:"strength"` // [0,1]
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NeutralResult is what a detector reports when it cannot produce a
// meaningful read (short window, degenerate inputs). The optional warning
// lands in metadata so aggregation can proceed while the fault stays
// observable.
func NeutralResult(kind DetectorKind, warning string) DetectorResult {
	r := DetectorResult{Kind: kind, Direction: Neutral, Strength: 0}
	if warning != "" {
		r.Metadata = map[string]interface{}{"warning": warning}
	}
	return r
}

// Classification buckets a composite score.
type Classification string

const (
	ClassStrong   Classification = "STRONG"
	ClassModerate Classification = "MODERATE"
	ClassWeak     Classification = "WEAK"
)

// ScoreBreakdown records the points each component contributed to the
// composite score.
type ScoreBreakdown struct {
	Gap        float64 `json:"fvg"`
	Pattern    float64 `json:"patterns"`
	Trendline  float64 `json:"trendlines"`
	Volume     float64 `json:"volume"`
	Momentum   float64 `json:"momentum"`
	Confluence float64 `json:"confluence"`
}

// Signal is one qualifying detection for a symbol+direction. Immutable
// after creation; lifecycle state lives on the ConfirmationRecord.
type Signal struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Direction      Direction      `json:"direction"`
	CompositeScore float64        `json:"composite_score"`
	Classification Classification `json:"classification"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	ConfluencePct  float64        `json:"confluence_pct"` // weighted timeframe agreement [0,1]
	ReferencePrice float64        `json:"reference_price"`
	DetectedAt     time.Time      `json:"detected_at"`
}

// NewSignalID returns a fresh signal identifier.
func NewSignalID() string { return uuid.NewString() }
