package confluence

import (
	"math"
	"testing"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/services/detectors"
)

func fullAgreement() Analysis {
	return Analysis{
		Direction:      models.Bullish,
		ConfluencePct:  1,
		AgreementCount: 3,
		TotalVotes:     3,
		StrongSignal:   true,
	}
}

func TestScoreComponents(t *testing.T) {
	s := NewScorer(testConfig())
	primary := []models.DetectorResult{
		result(models.DetectorGap, models.Bullish, 0.5),
		result(models.DetectorPattern, models.Neutral, 0),
		result(models.DetectorTrendline, models.Bullish, 1),
		result(models.DetectorVolume, models.Bullish, 0.5),
		result(models.DetectorMomentum, models.Bullish, 1),
	}
	score, bd, class := s.Score(primary, fullAgreement())

	if bd.Gap != 11 || bd.Pattern != 0 || bd.Trendline != 18 || bd.Volume != 6 || bd.Momentum != 8 {
		t.Fatalf("unexpected breakdown %+v", bd)
	}
	// Full agreement with a strong signal overflows the confluence cap.
	if bd.Confluence != 18 {
		t.Fatalf("confluence component %v", bd.Confluence)
	}
	if score != 61 {
		t.Fatalf("composite %v", score)
	}
	if class != models.ClassModerate {
		t.Fatalf("classification %s", class)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(testConfig())
	primary := []models.DetectorResult{
		result(models.DetectorGap, models.Bullish, 0.37),
		result(models.DetectorMomentum, models.Bullish, 0.81),
	}
	a, _, _ := s.Score(primary, fullAgreement())
	b, _, _ := s.Score(primary, fullAgreement())
	if a != b {
		t.Fatalf("score not deterministic: %v vs %v", a, b)
	}
}

func TestScoreMaximumBounded(t *testing.T) {
	s := NewScorer(testConfig())
	primary := []models.DetectorResult{
		result(models.DetectorGap, models.Bullish, 1),
		result(models.DetectorPattern, models.Bullish, 1),
		result(models.DetectorTrendline, models.Bullish, 1),
		result(models.DetectorVolume, models.Bullish, 1),
		result(models.DetectorMomentum, models.Bullish, 1),
	}
	score, _, class := s.Score(primary, fullAgreement())
	if score != 100 {
		t.Fatalf("expected 100, got %v", score)
	}
	if score > s.cfg.Aggregator.CompositeMax {
		t.Fatalf("score exceeds composite max")
	}
	if class != models.ClassStrong {
		t.Fatalf("expected STRONG, got %s", class)
	}
}

func TestScoreStrongScenario(t *testing.T) {
	// A 1% bullish gap whose middle candle trades twice its 10-bar
	// average volume, with the other detectors saturated and all three
	// timeframes agreeing bullish, must classify STRONG under the
	// shipped caps and cutoffs.
	cfg := testConfig()
	cfg.Detectors.Gap.MinGapPct = 0.005
	cfg.Detectors.Gap.ProximityPct = 0.02
	cfg.Detectors.Gap.VolumeConfirmRatio = 1.5
	cfg.Detectors.Gap.VolumeWindow = 10
	cfg.Detectors.Gap.MaxAgeCandles = 50

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	window := make([]models.Candle, 0, 12)
	for i := 0; i < 10; i++ {
		window = append(window, models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     99.5, High: 100, Low: 99, Close: 99.6,
			Volume: 100,
		})
	}
	window = append(window,
		models.Candle{
			OpenTime: base.Add(10 * time.Hour),
			Open:     99.8, High: 101.2, Low: 99.7, Close: 101,
			Volume: 200,
		},
		models.Candle{
			OpenTime: base.Add(11 * time.Hour),
			Open:     101.1, High: 101.5, Low: 101, Close: 101.2,
			Volume: 100,
		},
	)

	gapRes := detectors.NewGapDetector(cfg).Evaluate(window)
	if gapRes.Direction != models.Bullish || gapRes.Strength <= 0 {
		t.Fatalf("gap fixture did not score: %s %v", gapRes.Direction, gapRes.Strength)
	}

	primary := []models.DetectorResult{
		gapRes,
		result(models.DetectorPattern, models.Bullish, 1),
		result(models.DetectorTrendline, models.Bullish, 1),
		result(models.DetectorVolume, models.Bullish, 1),
		result(models.DetectorMomentum, models.Bullish, 1),
	}
	score, _, class := NewScorer(cfg).Score(primary, fullAgreement())
	if score < 80 {
		t.Fatalf("composite %v, want >= 80", score)
	}
	if class != models.ClassStrong {
		t.Fatalf("classification %s", class)
	}
}

func TestScoreConflictPenalty(t *testing.T) {
	s := NewScorer(testConfig())
	clean := fullAgreement()
	conflicted := fullAgreement()
	conflicted.AgreementCount = 2
	conflicted.Conflicting = []string{"1h"}

	_, cleanBd, _ := s.Score(nil, clean)
	_, confBd, _ := s.Score(nil, conflicted)
	if confBd.Confluence >= cleanBd.Confluence {
		t.Fatalf("conflict must reduce confluence: %v vs %v", confBd.Confluence, cleanBd.Confluence)
	}
}

func TestScoreConfluenceNeverNegative(t *testing.T) {
	s := NewScorer(testConfig())
	mtf := Analysis{
		Direction:     models.Bullish,
		ConfluencePct: 0.1,
		TotalVotes:    3,
		Conflicting:   []string{"1h", "4h", "1d"},
	}
	_, bd, _ := s.Score(nil, mtf)
	if bd.Confluence != 0 {
		t.Fatalf("confluence floored at 0, got %v", bd.Confluence)
	}
}

func TestClassifyCutoffs(t *testing.T) {
	s := NewScorer(testConfig())
	cases := []struct {
		score float64
		want  models.Classification
	}{
		{95, models.ClassStrong},
		{80, models.ClassStrong},
		{79.9, models.ClassModerate},
		{60, models.ClassModerate},
		{59.9, models.ClassWeak},
		{0, models.ClassWeak},
	}
	for _, tc := range cases {
		if got := s.Classify(tc.score); got != tc.want {
			t.Fatalf("classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestRound1(t *testing.T) {
	if got := round1(11.04); math.Abs(got-11) > 1e-9 {
		t.Fatalf("round1 %v", got)
	}
	if got := round1(11.05); math.Abs(got-11.1) > 1e-9 {
		t.Fatalf("round1 %v", got)
	}
}
