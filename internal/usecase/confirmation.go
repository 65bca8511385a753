package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/internal/services/features"
	"SwingScan/pkg/config"
	"SwingScan/pkg/logger"
)

// ConfirmationPipeline walks pending signals through time-delayed
// validation stages on the confirmation timeframe. Records are keyed by
// symbol and direction, so opposing directions can confirm in parallel
// while duplicates of the same pair are rejected. Only the scan loop
// mutates records; readers receive clones.
type ConfirmationPipeline struct {
	mu       sync.RWMutex
	cfg      *config.Config
	tf       repository.Timeframe
	provider repository.CandleProvider
	metrics  repository.Metrics
	log      *logger.Logger
	records  map[string]*models.ConfirmationRecord // symbol|direction

	// onResolved receives every record reaching a terminal state.
	onResolved func(ctx context.Context, rec *models.ConfirmationRecord)
}

func NewConfirmationPipeline(
	cfg *config.Config,
	provider repository.CandleProvider,
	metrics repository.Metrics,
	log *logger.Logger,
) *ConfirmationPipeline {
	return &ConfirmationPipeline{
		cfg:      cfg,
		tf:       repository.NormalizeTimeframe(cfg.Confirmation.Timeframe),
		provider: provider,
		metrics:  metrics,
		log:      log,
		records:  make(map[string]*models.ConfirmationRecord),
	}
}

// OnResolved registers the callback invoked once per record reaching
// CONFIRMED or REJECTED. Must be set before the scan loop starts.
func (p *ConfirmationPipeline) OnResolved(fn func(ctx context.Context, rec *models.ConfirmationRecord)) {
	p.onResolved = fn
}

func pipelineKey(symbol string, dir models.Direction) string {
	return symbol + "|" + string(dir)
}

// Admit creates a PENDING record for the signal. Returns
// models.ErrDuplicatePending when the symbol+direction pair already has
// an unresolved record.
func (p *ConfirmationPipeline) Admit(sig models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := pipelineKey(sig.Symbol, sig.Direction)
	if rec, ok := p.records[key]; ok && !rec.State.Terminal() {
		return fmt.Errorf("%w: %s %s", models.ErrDuplicatePending, sig.Symbol, sig.Direction)
	}
	p.records[key] = &models.ConfirmationRecord{
		SignalID:  sig.ID,
		Signal:    sig,
		State:     models.StatePending,
		CreatedAt: sig.DetectedAt,
	}
	return nil
}

// HasPending reports whether the symbol+direction pair has an unresolved
// record.
func (p *ConfirmationPipeline) HasPending(symbol string, dir models.Direction) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[pipelineKey(symbol, dir)]
	return ok && !rec.State.Terminal()
}

// Snapshot returns clones of all tracked records.
func (p *ConfirmationPipeline) Snapshot() []models.ConfirmationRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.ConfirmationRecord, 0, len(p.records))
	for _, rec := range p.records {
		out = append(out, rec.Clone())
	}
	return out
}

// Advance evaluates every pending record whose next stage wait has
// elapsed at now. Records that resolve are handed to the onResolved
// callback and dropped from tracking.
func (p *ConfirmationPipeline) Advance(ctx context.Context, now time.Time) {
	p.mu.Lock()
	var resolved []*models.ConfirmationRecord
	for key, rec := range p.records {
		if rec.State.Terminal() {
			delete(p.records, key)
			continue
		}
		p.advanceRecord(ctx, rec, now)
		if rec.State.Terminal() {
			rec.ResolvedAt = now
			resolved = append(resolved, rec)
			delete(p.records, key)
		}
	}
	p.mu.Unlock()

	for _, rec := range resolved {
		switch rec.State {
		case models.StateConfirmed:
			p.metrics.RecordSignalConfirmed(rec.Signal.Symbol, string(rec.Signal.Direction))
		case models.StateRejected:
			label := "stage_failed"
			if rec.RejectReason == "data unavailable" {
				label = "data_unavailable"
			}
			p.metrics.RecordSignalRejected(rec.Signal.Symbol, label)
		}
		if p.onResolved != nil {
			p.onResolved(ctx, rec)
		}
	}
}

// advanceRecord walks the record through every stage whose wait has
// elapsed. A failed stage rejects immediately; stage N+1 is never
// attempted after stage N fails.
func (p *ConfirmationPipeline) advanceRecord(ctx context.Context, rec *models.ConfirmationRecord, now time.Time) {
	stages := p.cfg.Confirmation.Stages
	tfDur := p.tf.Duration()

	for rec.CurrentStage < len(stages) {
		stage := stages[rec.CurrentStage]
		due := rec.Signal.DetectedAt.Add(time.Duration(stage.WaitCandles) * tfDur)
		if now.Before(due) {
			return // not yet; evaluating earlier would be premature
		}

		result, err := p.evaluateStage(ctx, rec, stage, now)
		if err != nil {
			if errors.Is(err, models.ErrDataUnavailable) {
				rec.Retries++
				if rec.Retries > p.cfg.Confirmation.MaxRetries {
					p.reject(rec, "data unavailable")
					return
				}
				p.log.Warn("confirmation stage deferred",
					logger.String("symbol", rec.Signal.Symbol),
					logger.Int("stage", rec.CurrentStage),
					logger.Int("retries", rec.Retries))
				return
			}
			p.metrics.RecordError("confirmation_stage")
			p.log.Error("confirmation stage evaluation failed",
				logger.String("symbol", rec.Signal.Symbol),
				logger.Int("stage", rec.CurrentStage),
				logger.Error(err))
			return
		}

		rec.Retries = 0
		rec.StageHistory = append(rec.StageHistory, result)
		if !result.Passed {
			p.reject(rec, fmt.Sprintf("stage %d confidence %.1f below %.1f",
				result.StageIndex, result.Confidence, stage.ConfidenceThreshold))
			return
		}
		rec.CurrentStage++
	}

	rec.State = models.StateConfirmed
	p.log.Info("signal confirmed",
		logger.String("symbol", rec.Signal.Symbol),
		logger.String("direction", string(rec.Signal.Direction)),
		logger.Float64("final_confidence", rec.FinalConfidence()))
}

func (p *ConfirmationPipeline) reject(rec *models.ConfirmationRecord, reason string) {
	rec.State = models.StateRejected
	rec.RejectReason = reason
	p.log.Info("signal rejected",
		logger.String("symbol", rec.Signal.Symbol),
		logger.String("direction", string(rec.Signal.Direction)),
		logger.String("reason", reason))
}

// evaluateStage scores the closed confirmation candles that formed after
// detection against the stage's criteria. Returns ErrDataUnavailable
// (wrapped) when the required candles are not served yet.
func (p *ConfirmationPipeline) evaluateStage(
	ctx context.Context,
	rec *models.ConfirmationRecord,
	stage config.StageConfig,
	now time.Time,
) (models.StageResult, error) {
	// Fetch enough history for the volume baseline plus the stage window.
	fetchCount := p.cfg.Detectors.Volume.Window + stage.WaitCandles + 5
	candles, err := p.provider.GetCandles(ctx, rec.Signal.Symbol, p.tf, fetchCount)
	if err != nil {
		return models.StageResult{}, fmt.Errorf("fetch confirmation candles: %w", err)
	}

	// Keep only closed candles that opened after the signal fired.
	tfDur := p.tf.Duration()
	start := len(candles)
	for i, c := range candles {
		if c.OpenTime.After(rec.Signal.DetectedAt) {
			start = i
			break
		}
	}
	var post []models.Candle
	for _, c := range candles[start:] {
		if !c.OpenTime.Add(tfDur).After(now) {
			post = append(post, c)
		}
	}
	if len(post) < stage.CandleCount {
		return models.StageResult{}, fmt.Errorf("%w: %d of %d confirmation candles formed",
			models.ErrDataUnavailable, len(post), stage.CandleCount)
	}
	window := post[len(post)-stage.CandleCount:]

	// A stalled feed defers rather than scores: the newest closed bar
	// must be recent enough to represent current conditions.
	if max := p.cfg.Confirmation.MaxStaleness; max > 0 {
		newestClose := window[len(window)-1].OpenTime.Add(tfDur)
		if age := now.Sub(newestClose); age > max {
			return models.StageResult{}, fmt.Errorf("%w: newest confirmation candle closed %s ago",
				models.ErrDataUnavailable, age)
		}
	}

	var met, total int
	for _, c := range window {
		idx := candleIndex(candles, c)
		m, t := scoreStageCandle(c, rec.Signal, stage, candles, idx, p.cfg.Detectors.Volume.Window)
		met += m
		total += t
	}

	confidence := 0.0
	if total > 0 {
		confidence = float64(met) / float64(total) * 100
	}
	return models.StageResult{
		StageIndex:  rec.CurrentStage,
		Confidence:  confidence,
		Passed:      confidence >= stage.ConfidenceThreshold,
		EvaluatedAt: now,
		Detail:      fmt.Sprintf("%d/%d criteria met", met, total),
	}, nil
}

// scoreStageCandle checks one candle against the stage criteria and
// returns met and total counts. The wick criterion only participates
// when the stage sets a cap.
func scoreStageCandle(
	c models.Candle,
	sig models.Signal,
	stage config.StageConfig,
	series []models.Candle,
	seriesIdx int,
	volumeWindow int,
) (met, total int) {
	bullish := sig.Direction == models.Bullish

	// Direction consistency.
	total++
	if (bullish && c.IsBullish()) || (!bullish && c.IsBearish()) {
		met++
	}

	// Body dominance.
	total++
	if c.BodyRatio() > stage.MinBodyRatio {
		met++
	}

	// Volume expansion against the rolling baseline.
	total++
	ratio := 1.0
	if seriesIdx >= 0 {
		ratio = features.VolumeRatio(series, seriesIdx, volumeWindow)
	}
	if ratio > stage.MinVolumeRatio {
		met++
	}

	// Displacement beyond the reference price.
	total++
	if sig.ReferencePrice > 0 {
		threshold := sig.ReferencePrice * (1 + stage.MinDisplacementPct)
		if !bullish {
			threshold = sig.ReferencePrice * (1 - stage.MinDisplacementPct)
		}
		if (bullish && c.Close > threshold) || (!bullish && c.Close < threshold) {
			met++
		}
	}

	// Wick discipline, later stages only.
	if stage.MaxWickRatio > 0 {
		total++
		if c.UpperWickRatio() < stage.MaxWickRatio && c.LowerWickRatio() < stage.MaxWickRatio {
			met++
		}
	}
	return met, total
}

func candleIndex(series []models.Candle, c models.Candle) int {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].OpenTime.Equal(c.OpenTime) {
			return i
		}
	}
	return -1
}
