package confluence

import (
	"SwingScan/internal/domain/models"
	"SwingScan/pkg/config"
)

// TimeframeVote is one timeframe's directional read, derived from its
// detector results.
type TimeframeVote struct {
	Timeframe string
	Direction models.Direction
	Strength  float64 // [0,1]
	Signals   int
}

// Analysis is the cross-timeframe confluence outcome.
type Analysis struct {
	Direction      models.Direction
	ConfluencePct  float64 // weighted share of the dominant direction [0,1]
	AgreementCount int
	TotalVotes     int
	StrongSignal   bool
	Conflicting    []string // timeframes disagreeing with meaningful strength
	Votes          []TimeframeVote
}

// Aggregator turns per-timeframe detector results into a weighted
// multi-timeframe direction with a confluence percentage.
type Aggregator struct {
	cfg *config.Config
}

func NewAggregator(cfg *config.Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// VoteTimeframe condenses one timeframe's detector results into a vote.
// Directional results tally by strength; the majority side wins when it
// holds more than half of the directional mass, otherwise the vote is
// NEUTRAL at reduced strength.
func (a *Aggregator) VoteTimeframe(tf string, results []models.DetectorResult) TimeframeVote {
	var bull, bear float64
	signals := 0
	for _, r := range results {
		if r.Direction == models.Neutral || r.Strength == 0 {
			continue
		}
		signals++
		if r.Direction == models.Bullish {
			bull += r.Strength
		} else {
			bear += r.Strength
		}
	}
	vote := TimeframeVote{Timeframe: tf, Direction: models.Neutral, Signals: signals}
	total := bull + bear
	if total == 0 {
		return vote
	}
	bullRatio := bull / total
	bearRatio := bear / total
	switch {
	case bullRatio > bearRatio && bullRatio > 0.5:
		vote.Direction = models.Bullish
		vote.Strength = bullRatio
	case bearRatio > bullRatio && bearRatio > 0.5:
		vote.Direction = models.Bearish
		vote.Strength = bearRatio
	default:
		vote.Strength = maxf(bullRatio, bearRatio) * 0.5
	}
	return vote
}

// Combine weighs the timeframe votes by the configured timeframe weights
// and resolves the dominant direction, agreement count, and conflicts.
func (a *Aggregator) Combine(votes []TimeframeVote) Analysis {
	out := Analysis{Direction: models.Neutral, Votes: votes, TotalVotes: len(votes)}
	var bullW, bearW, neutralW float64
	for _, v := range votes {
		w, ok := a.cfg.Aggregator.TimeframeWeights[v.Timeframe]
		if !ok {
			w = 1.0 / float64(len(votes))
		}
		switch v.Direction {
		case models.Bullish:
			bullW += w * v.Strength
		case models.Bearish:
			bearW += w * v.Strength
		default:
			neutralW += w * v.Strength
		}
	}
	total := bullW + bearW + neutralW
	if total == 0 {
		return out
	}

	bullR, bearR, neutR := bullW/total, bearW/total, neutralW/total
	switch {
	case bullR > bearR && bullR > neutR:
		out.Direction = models.Bullish
		out.ConfluencePct = bullR
	case bearR > bullR && bearR > neutR:
		out.Direction = models.Bearish
		out.ConfluencePct = bearR
	default:
		out.ConfluencePct = neutR
	}

	for _, v := range votes {
		if v.Direction == out.Direction {
			out.AgreementCount++
		} else if v.Direction != models.Neutral && v.Strength > 0.3 {
			out.Conflicting = append(out.Conflicting, v.Timeframe)
		}
	}
	out.StrongSignal = out.Direction != models.Neutral && out.ConfluencePct >= 0.7
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
