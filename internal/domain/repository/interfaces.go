package repository

import (
	"context"
	"time"

	"SwingScan/internal/domain/models"
)

// CandleProvider supplies ordered candle windows. Implementations return
// models.ErrDataUnavailable (possibly wrapped) when the underlying feed
// cannot serve the requested window.
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol string, tf Timeframe, count int) ([]models.Candle, error)
}

// SymbolLister enumerates scan candidates after universe filtering
// (volume floor, price band, excluded bases).
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// SignalPublisher delivers SignalConfirmed events to external consumers.
type SignalPublisher interface {
	PublishConfirmed(ctx context.Context, ev *models.SignalConfirmed) error
	Close() error
}

// SignalArchive persists terminal confirmation records for later analysis.
type SignalArchive interface {
	Init(ctx context.Context) error
	StoreRecord(ctx context.Context, rec *models.ConfirmationRecord) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.ConfirmationRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics is the observability port for the scan core.
type Metrics interface {
	RecordScanTick()
	RecordDetectorEval(kind string)
	RecordSignalDetected(symbol, direction string)
	RecordSignalConfirmed(symbol, direction string)
	RecordSignalRejected(symbol, reason string)
	RecordCooldownSuppressed(symbol string)
	RecordCompositeScore(symbol string, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
