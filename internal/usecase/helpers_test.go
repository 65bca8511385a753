package usecase

import (
	"context"
	"sync"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/pkg/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scanner.TickInterval = time.Minute
	cfg.Scanner.Symbols = []string{"TESTUSDT"}
	cfg.Scanner.WindowSize = 20

	cfg.Detectors.Gap.MinGapPct = 0.005
	cfg.Detectors.Gap.ProximityPct = 0.02
	cfg.Detectors.Gap.VolumeConfirmRatio = 1.5
	cfg.Detectors.Gap.VolumeWindow = 20
	cfg.Detectors.Gap.MaxAgeCandles = 50
	cfg.Detectors.Pattern.TolerancePct = 0.01
	cfg.Detectors.Pattern.MinConfidence = 70
	cfg.Detectors.Pattern.PivotDistance = 3
	cfg.Detectors.Pattern.Lookback = 50
	cfg.Detectors.Trendline.Window = 20
	cfg.Detectors.Trendline.BreakoutMarginPct = 0.01
	cfg.Detectors.Trendline.PivotDistance = 2
	cfg.Detectors.Volume.Window = 3
	cfg.Detectors.Volume.SpikeRatio = 1.2
	cfg.Detectors.Volume.ExplosiveRatio = 2.0
	cfg.Detectors.Volume.SaturationRatio = 5.0
	cfg.Detectors.Momentum.ChangeWindow = 5
	cfg.Detectors.Momentum.ATRPeriod = 14

	cfg.Aggregator.Timeframes = []string{"1h"}
	cfg.Aggregator.TimeframeWeights = map[string]float64{"1h": 1}
	cfg.Aggregator.Caps.Gap = 22
	cfg.Aggregator.Caps.Pattern = 22
	cfg.Aggregator.Caps.Trendline = 18
	cfg.Aggregator.Caps.Volume = 12
	cfg.Aggregator.Caps.Momentum = 8
	cfg.Aggregator.Caps.Confluence = 18
	cfg.Aggregator.CompositeMax = 110
	cfg.Aggregator.StrongCutoff = 90
	cfg.Aggregator.ModerateCutoff = 5
	cfg.Aggregator.PerfectBonus = 4
	cfg.Aggregator.ConflictPenalty = 1.8

	cfg.Confirmation.Timeframe = "5m"
	cfg.Confirmation.MaxRetries = 2
	cfg.Confirmation.MaxStaleness = 10 * time.Minute
	cfg.Confirmation.Stages = []config.StageConfig{
		{WaitCandles: 1, CandleCount: 1, MinBodyRatio: 0.6, MinVolumeRatio: 1.2, ConfidenceThreshold: 60},
		{WaitCandles: 3, CandleCount: 1, MinBodyRatio: 0.7, MinVolumeRatio: 1.5, MaxWickRatio: 0.3, ConfidenceThreshold: 80},
	}

	cfg.Cooldown.Window = 30 * time.Minute
	cfg.Cooldown.PurgeFactor = 2
	return cfg
}

// fakeProvider serves a fixed candle slice, or an error when set. Calls
// are counted per timeframe.
type fakeProvider struct {
	mu      sync.Mutex
	candles map[repository.Timeframe][]models.Candle
	err     error
	calls   int
}

func (f *fakeProvider) GetCandles(_ context.Context, _ string, tf repository.Timeframe, count int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c := f.candles[tf]
	if len(c) > count {
		c = c[len(c)-count:]
	}
	out := make([]models.Candle, len(c))
	copy(out, c)
	return out, nil
}

type fakeMetrics struct {
	mu         sync.Mutex
	ticks      int
	detected   int
	confirmed  int
	rejected   int
	suppressed int
	rejectWhy  []string
	errs       []string
}

func (m *fakeMetrics) RecordScanTick()                       { m.mu.Lock(); m.ticks++; m.mu.Unlock() }
func (m *fakeMetrics) RecordDetectorEval(string)             {}
func (m *fakeMetrics) RecordSignalDetected(string, string)   { m.mu.Lock(); m.detected++; m.mu.Unlock() }
func (m *fakeMetrics) RecordSignalConfirmed(string, string)  { m.mu.Lock(); m.confirmed++; m.mu.Unlock() }
func (m *fakeMetrics) RecordSignalRejected(_, reason string) {
	m.mu.Lock()
	m.rejected++
	m.rejectWhy = append(m.rejectWhy, reason)
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordCooldownSuppressed(string) { m.mu.Lock(); m.suppressed++; m.mu.Unlock() }
func (m *fakeMetrics) RecordCompositeScore(string, float64) {}
func (m *fakeMetrics) RecordError(kind string)              { m.mu.Lock(); m.errs = append(m.errs, kind); m.mu.Unlock() }
func (m *fakeMetrics) RecordLatency(string, float64)        {}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.SignalConfirmed
	err    error
}

func (p *fakePublisher) PublishConfirmed(_ context.Context, ev *models.SignalConfirmed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeArchive struct {
	mu      sync.Mutex
	records []models.ConfirmationRecord
}

func (a *fakeArchive) Init(context.Context) error { return nil }
func (a *fakeArchive) StoreRecord(_ context.Context, rec *models.ConfirmationRecord) error {
	a.mu.Lock()
	a.records = append(a.records, rec.Clone())
	a.mu.Unlock()
	return nil
}
func (a *fakeArchive) Query(context.Context, string, time.Time, time.Time, int) ([]models.ConfirmationRecord, error) {
	return nil, nil
}
func (a *fakeArchive) Health(context.Context) error { return nil }
func (a *fakeArchive) Close() error                 { return nil }
