package usecase

import (
	"context"
	"errors"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/internal/services/confluence"
	"SwingScan/internal/services/detectors"
	"SwingScan/pkg/config"
	"SwingScan/pkg/logger"
)

// Scanner drives the periodic scan: fetch candle windows per symbol and
// timeframe, run the detector set, aggregate confluence, score, and
// admit qualifying signals into the confirmation pipeline. A single
// goroutine owns the loop; every tick also advances pending
// confirmations so stage waits are honored without separate timers.
type Scanner struct {
	cfg        *config.Config
	provider   repository.CandleProvider
	lister     repository.SymbolLister
	detectors  []detectors.Detector
	aggregator *confluence.Aggregator
	scorer     *confluence.Scorer
	pipeline   *ConfirmationPipeline
	cooldown   *CooldownGuard
	publisher  repository.SignalPublisher
	archive    repository.SignalArchive
	metrics    repository.Metrics
	log        *logger.Logger
	ranker     *Ranker

	timeframes []repository.Timeframe
	now        func() time.Time
}

func NewScanner(
	cfg *config.Config,
	provider repository.CandleProvider,
	lister repository.SymbolLister,
	pipeline *ConfirmationPipeline,
	cooldown *CooldownGuard,
	publisher repository.SignalPublisher,
	archive repository.SignalArchive,
	metrics repository.Metrics,
	log *logger.Logger,
) *Scanner {
	tfs := make([]repository.Timeframe, 0, len(cfg.Aggregator.Timeframes))
	for _, s := range cfg.Aggregator.Timeframes {
		tfs = append(tfs, repository.NormalizeTimeframe(s))
	}
	s := &Scanner{
		cfg:        cfg,
		provider:   provider,
		lister:     lister,
		detectors:  detectors.All(cfg),
		aggregator: confluence.NewAggregator(cfg),
		scorer:     confluence.NewScorer(cfg),
		pipeline:   pipeline,
		cooldown:   cooldown,
		publisher:  publisher,
		archive:    archive,
		metrics:    metrics,
		log:        log,
		ranker:     NewRanker(),
		timeframes: tfs,
		now:        time.Now,
	}
	pipeline.OnResolved(s.handleResolved)
	return s
}

// Ranker exposes the ranked snapshot of the latest tick.
func (s *Scanner) Ranker() *Ranker { return s.ranker }

// Pipeline exposes the confirmation pipeline for read-only callers.
func (s *Scanner) Pipeline() *ConfirmationPipeline { return s.pipeline }

// Cooldown exposes the cooldown guard for read-only callers.
func (s *Scanner) Cooldown() *CooldownGuard { return s.cooldown }

// Run blocks, ticking at the configured interval until ctx is canceled.
// The first tick fires immediately.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Scanner.TickInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one full scan pass: evaluate every symbol, refresh the
// ranking, then advance pending confirmations.
func (s *Scanner) Tick(ctx context.Context) {
	start := s.now()
	s.metrics.RecordScanTick()

	symbols := s.symbols(ctx)
	opps := make([]Opportunity, 0, len(symbols))
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return
		}
		if opp, ok := s.scanSymbol(ctx, sym, start); ok {
			opps = append(opps, opp)
		}
	}
	s.ranker.SetTick(opps)

	s.pipeline.Advance(ctx, s.now())
	s.cooldown.Sweep(s.now())
	s.metrics.RecordLatency("scan_tick", s.now().Sub(start).Seconds())
}

func (s *Scanner) symbols(ctx context.Context) []string {
	if s.lister == nil {
		return s.cfg.Scanner.Symbols
	}
	symbols, err := s.lister.ListSymbols(ctx)
	if err != nil || len(symbols) == 0 {
		if err != nil {
			s.metrics.RecordError("symbol_list")
			s.log.Warn("symbol listing failed, using configured set", logger.Error(err))
		}
		return s.cfg.Scanner.Symbols
	}
	return symbols
}

// scanSymbol evaluates one symbol across all analysis timeframes. The
// first configured timeframe is primary: its detector results feed the
// component scores, the rest contribute confluence votes.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, now time.Time) (Opportunity, bool) {
	var primary []models.DetectorResult
	votes := make([]confluence.TimeframeVote, 0, len(s.timeframes))

	for i, tf := range s.timeframes {
		candles, err := s.provider.GetCandles(ctx, symbol, tf, s.cfg.Scanner.WindowSize)
		if err != nil {
			if errors.Is(err, models.ErrDataUnavailable) {
				s.log.Debug("candle window unavailable, skipping tick",
					logger.String("symbol", symbol), logger.String("timeframe", string(tf)))
			} else {
				s.metrics.RecordError("candle_fetch")
				s.log.Warn("candle fetch failed",
					logger.String("symbol", symbol), logger.String("timeframe", string(tf)), logger.Error(err))
			}
			return Opportunity{}, false
		}

		results := make([]models.DetectorResult, 0, len(s.detectors))
		for _, d := range s.detectors {
			s.metrics.RecordDetectorEval(string(d.Kind()))
			results = append(results, d.Evaluate(candles))
		}
		if i == 0 {
			primary = results
		}
		votes = append(votes, s.aggregator.VoteTimeframe(string(tf), results))
	}

	mtf := s.aggregator.Combine(votes)
	score, breakdown, class := s.scorer.Score(primary, mtf)
	s.metrics.RecordCompositeScore(symbol, score)

	price, ok := s.lastPrice(ctx, symbol)
	if !ok {
		return Opportunity{}, false
	}
	opp := Opportunity{
		Symbol:         symbol,
		Direction:      mtf.Direction,
		CompositeScore: score,
		Classification: class,
		Breakdown:      breakdown,
		ConfluencePct:  mtf.ConfluencePct,
		Price:          price,
		ScannedAt:      now,
	}

	// WEAK results and directionless confluence list in the ranking but
	// never enter confirmation.
	if class == models.ClassWeak || mtf.Direction == models.Neutral {
		return opp, true
	}

	if err := s.cooldown.Check(symbol, now); err != nil {
		s.metrics.RecordCooldownSuppressed(symbol)
		s.log.Debug("signal suppressed by cooldown",
			logger.String("symbol", symbol),
			logger.Error(err))
		return opp, true
	}
	if s.pipeline.HasPending(symbol, mtf.Direction) {
		return opp, true
	}

	sig := models.Signal{
		ID:             models.NewSignalID(),
		Symbol:         symbol,
		Direction:      mtf.Direction,
		CompositeScore: score,
		Classification: class,
		Breakdown:      breakdown,
		ConfluencePct:  mtf.ConfluencePct,
		ReferencePrice: price,
		DetectedAt:     now,
	}
	if err := s.pipeline.Admit(sig); err != nil {
		if !errors.Is(err, models.ErrDuplicatePending) {
			s.metrics.RecordError("pipeline_admit")
			s.log.Error("pipeline admission failed", logger.String("symbol", symbol), logger.Error(err))
		}
		return opp, true
	}
	opp.Admitted = true
	s.metrics.RecordSignalDetected(symbol, string(mtf.Direction))
	s.log.Info("signal detected",
		logger.String("symbol", symbol),
		logger.String("direction", string(mtf.Direction)),
		logger.Float64("score", score),
		logger.String("class", string(class)))
	return opp, true
}

func (s *Scanner) lastPrice(ctx context.Context, symbol string) (float64, bool) {
	candles, err := s.provider.GetCandles(ctx, symbol, s.timeframes[0], 1)
	if err != nil || len(candles) == 0 {
		return 0, false
	}
	return candles[len(candles)-1].Close, true
}

// handleResolved runs once per record leaving the pipeline. Confirmation
// arms the symbol cooldown and publishes the event; both outcomes are
// archived.
func (s *Scanner) handleResolved(ctx context.Context, rec *models.ConfirmationRecord) {
	now := s.now()
	if rec.State == models.StateConfirmed {
		s.cooldown.Arm(rec.Signal.Symbol, now)
		if s.publisher != nil {
			ev := &models.SignalConfirmed{
				SignalID:        rec.SignalID,
				Symbol:          rec.Signal.Symbol,
				Direction:       rec.Signal.Direction,
				CompositeScore:  rec.Signal.CompositeScore,
				FinalConfidence: rec.FinalConfidence(),
				ReferencePrice:  rec.Signal.ReferencePrice,
				StageHistory:    rec.StageHistory,
				DetectedAt:      rec.Signal.DetectedAt,
				ConfirmedAt:     now,
			}
			if err := s.publisher.PublishConfirmed(ctx, ev); err != nil {
				s.metrics.RecordError("publish_confirmed")
				s.log.Error("confirmed signal publish failed",
					logger.String("symbol", rec.Signal.Symbol), logger.Error(err))
			}
		}
	}
	if s.archive != nil {
		if err := s.archive.StoreRecord(ctx, rec); err != nil {
			s.metrics.RecordError("archive_store")
			s.log.Error("record archive failed",
				logger.String("signal_id", rec.SignalID), logger.Error(err))
		}
	}
}
