package usecase

import (
	"context"
	"testing"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/pkg/config"
	"SwingScan/pkg/logger"
)

// bullishTape builds 20 uptrending bars with a volume burst on the last
// one, enough for momentum and volume to vote bullish.
func bullishTape() []models.Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 20)
	for i := range out {
		price := 100 + float64(i)*0.3
		out[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     price, High: price + 0.5, Low: price - 0.5, Close: price + 0.2,
			Volume: 100,
		}
	}
	out[19].Volume = 400
	return out
}

func flatTape() []models.Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 20)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 100.5, Low: 99.5, Close: 100,
			Volume: 100,
		}
	}
	return out
}

func newTestScanner(cfg *config.Config, provider repository.CandleProvider, metrics repository.Metrics, pub repository.SignalPublisher, arch repository.SignalArchive) *Scanner {
	pipeline := NewConfirmationPipeline(cfg, provider, metrics, logger.Nop())
	cooldown := NewCooldownGuard(cfg)
	return NewScanner(cfg, provider, nil, pipeline, cooldown, pub, arch, metrics, logger.Nop())
}

func TestScannerTickAdmitsSignal(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{candles: map[repository.Timeframe][]models.Candle{
		repository.TF1h: bullishTape(),
	}}
	metrics := &fakeMetrics{}
	s := newTestScanner(cfg, provider, metrics, nil, nil)

	s.Tick(context.Background())

	top := s.Ranker().Top(0)
	if len(top) != 1 {
		t.Fatalf("expected one opportunity, got %d", len(top))
	}
	opp := top[0]
	if opp.Symbol != "TESTUSDT" || opp.Direction != models.Bullish {
		t.Fatalf("unexpected opportunity %+v", opp)
	}
	if !opp.Admitted {
		t.Fatalf("qualifying signal not admitted")
	}
	if !s.Pipeline().HasPending("TESTUSDT", models.Bullish) {
		t.Fatalf("pipeline has no pending record")
	}
	if metrics.detected != 1 || metrics.ticks != 1 {
		t.Fatalf("unexpected metrics detected=%d ticks=%d", metrics.detected, metrics.ticks)
	}
}

func TestScannerTickNoDuplicateAdmission(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{candles: map[repository.Timeframe][]models.Candle{
		repository.TF1h: bullishTape(),
	}}
	metrics := &fakeMetrics{}
	s := newTestScanner(cfg, provider, metrics, nil, nil)

	s.Tick(context.Background())
	s.Tick(context.Background())

	if metrics.detected != 1 {
		t.Fatalf("pending signal re-admitted: detected=%d", metrics.detected)
	}
	top := s.Ranker().Top(0)
	if len(top) != 1 || top[0].Admitted {
		t.Fatalf("second tick should list without admitting: %+v", top)
	}
}

func TestScannerTickFlatTapeNotAdmitted(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{candles: map[repository.Timeframe][]models.Candle{
		repository.TF1h: flatTape(),
	}}
	metrics := &fakeMetrics{}
	s := newTestScanner(cfg, provider, metrics, nil, nil)

	s.Tick(context.Background())

	top := s.Ranker().Top(0)
	if len(top) != 1 {
		t.Fatalf("flat symbol should still be listed")
	}
	if top[0].Admitted || top[0].Direction != models.Neutral {
		t.Fatalf("flat tape must not be admitted: %+v", top[0])
	}
	if metrics.detected != 0 {
		t.Fatalf("unexpected detection on flat tape")
	}
}

func TestScannerTickCooldownSuppression(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{candles: map[repository.Timeframe][]models.Candle{
		repository.TF1h: bullishTape(),
	}}
	metrics := &fakeMetrics{}
	s := newTestScanner(cfg, provider, metrics, nil, nil)

	s.Cooldown().Arm("TESTUSDT", time.Now())
	s.Tick(context.Background())

	if metrics.detected != 0 {
		t.Fatalf("cooldown ignored: detected=%d", metrics.detected)
	}
	if metrics.suppressed != 1 {
		t.Fatalf("suppression not recorded: %d", metrics.suppressed)
	}
	top := s.Ranker().Top(0)
	if len(top) != 1 || top[0].Admitted {
		t.Fatalf("suppressed symbol should list without admission: %+v", top)
	}
}

func TestScannerTickDataUnavailableSkips(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{err: models.ErrDataUnavailable}
	metrics := &fakeMetrics{}
	s := newTestScanner(cfg, provider, metrics, nil, nil)

	s.Tick(context.Background())

	if len(s.Ranker().Top(0)) != 0 {
		t.Fatalf("unavailable symbol must not be listed")
	}
	if len(metrics.errs) != 0 {
		t.Fatalf("data unavailability is not an error: %v", metrics.errs)
	}
}

func TestScannerHandleResolvedConfirmed(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{candles: map[repository.Timeframe][]models.Candle{
		repository.TF1h: bullishTape(),
	}}
	metrics := &fakeMetrics{}
	pub := &fakePublisher{}
	arch := &fakeArchive{}
	s := newTestScanner(cfg, provider, metrics, pub, arch)

	rec := &models.ConfirmationRecord{
		SignalID: "sig-1",
		Signal: models.Signal{
			ID: "sig-1", Symbol: "TESTUSDT", Direction: models.Bullish,
			CompositeScore: 82, ReferencePrice: 105, DetectedAt: time.Now(),
		},
		State: models.StateConfirmed,
		StageHistory: []models.StageResult{
			{Confidence: 80}, {Confidence: 100},
		},
	}
	s.handleResolved(context.Background(), rec)

	if !s.Cooldown().Blocked("TESTUSDT", time.Now()) {
		t.Fatalf("confirmation must arm the cooldown")
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.SignalID != "sig-1" || ev.FinalConfidence != 90 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(arch.records) != 1 {
		t.Fatalf("record not archived")
	}
}

func TestScannerHandleResolvedRejected(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{candles: map[repository.Timeframe][]models.Candle{
		repository.TF1h: bullishTape(),
	}}
	pub := &fakePublisher{}
	arch := &fakeArchive{}
	s := newTestScanner(cfg, provider, &fakeMetrics{}, pub, arch)

	rec := &models.ConfirmationRecord{
		SignalID: "sig-2",
		Signal:   models.Signal{ID: "sig-2", Symbol: "TESTUSDT", Direction: models.Bearish},
		State:    models.StateRejected,
	}
	s.handleResolved(context.Background(), rec)

	if s.Cooldown().Blocked("TESTUSDT", time.Now()) {
		t.Fatalf("rejection must not arm the cooldown")
	}
	if len(pub.events) != 0 {
		t.Fatalf("rejection must not publish")
	}
	if len(arch.records) != 1 {
		t.Fatalf("rejection must still be archived")
	}
}
