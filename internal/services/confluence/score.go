package confluence

import (
	"math"

	"SwingScan/internal/domain/models"
	"SwingScan/pkg/config"
)

// Scorer computes the composite opportunity score from the primary
// timeframe's detector results plus the multi-timeframe confluence
// analysis. Scoring is deterministic: identical inputs always yield the
// identical score.
type Scorer struct {
	cfg *config.Config
}

func NewScorer(cfg *config.Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score returns the composite score, its per-component breakdown, and
// the classification bucket. Components are each detector's normalized
// strength scaled to its point cap; the confluence component adds
// agreement bonuses and subtracts a penalty per conflicting timeframe.
func (s *Scorer) Score(primary []models.DetectorResult, mtf Analysis) (float64, models.ScoreBreakdown, models.Classification) {
	ac := s.cfg.Aggregator

	var bd models.ScoreBreakdown
	for _, r := range primary {
		switch r.Kind {
		case models.DetectorGap:
			bd.Gap = round1(r.Strength * ac.Caps.Gap)
		case models.DetectorPattern:
			bd.Pattern = round1(r.Strength * ac.Caps.Pattern)
		case models.DetectorTrendline:
			bd.Trendline = round1(r.Strength * ac.Caps.Trendline)
		case models.DetectorVolume:
			bd.Volume = round1(r.Strength * ac.Caps.Volume)
		case models.DetectorMomentum:
			bd.Momentum = round1(r.Strength * ac.Caps.Momentum)
		}
	}

	half := ac.Caps.Confluence / 2
	conf := mtf.ConfluencePct * half
	if mtf.AgreementCount >= 2 && mtf.TotalVotes >= 2 {
		conf += float64(mtf.AgreementCount) / float64(mtf.TotalVotes) * half
		if mtf.AgreementCount == mtf.TotalVotes && mtf.TotalVotes >= 3 {
			conf += ac.PerfectBonus
		}
	}
	if mtf.StrongSignal {
		conf += 2.5
	}
	conf -= float64(len(mtf.Conflicting)) * ac.ConflictPenalty
	bd.Confluence = round1(math.Max(0, math.Min(conf, ac.Caps.Confluence)))

	total := bd.Gap + bd.Pattern + bd.Trendline + bd.Volume + bd.Momentum + bd.Confluence
	total = math.Min(total, ac.CompositeMax)
	return total, bd, s.Classify(total)
}

// Classify buckets a composite score by the configured cutoffs.
func (s *Scorer) Classify(score float64) models.Classification {
	switch {
	case score >= s.cfg.Aggregator.StrongCutoff:
		return models.ClassStrong
	case score >= s.cfg.Aggregator.ModerateCutoff:
		return models.ClassModerate
	default:
		return models.ClassWeak
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
