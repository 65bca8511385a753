package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	pkgkafka "SwingScan/pkg/kafka"
)

// ClickHouseArchive implements SignalArchive: every terminal
// confirmation record lands in one append-only table for later review.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates the ClickHouse-backed signal archive.
func NewClickHouseArchive(db *sql.DB, table string) repository.SignalArchive {
	return &ClickHouseArchive{db: db, table: table}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		signal_id String,
		symbol String,
		direction String,
		composite_score Float64,
		classification String,
		confluence_pct Float64,
		reference_price Float64,
		state String,
		final_confidence Float64,
		reject_reason String,
		stage_history String,
		detected_at DateTime64(3),
		resolved_at DateTime64(3)
	) ENGINE = MergeTree()
	ORDER BY (symbol, detected_at)`, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) StoreRecord(ctx context.Context, rec *models.ConfirmationRecord) error {
	history, err := json.Marshal(rec.StageHistory)
	if err != nil {
		return fmt.Errorf("marshal stage history: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(signal_id, symbol, direction, composite_score, classification, confluence_pct,
		 reference_price, state, final_confidence, reject_reason, stage_history,
		 detected_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, a.table)
	_, err = a.db.ExecContext(ctx, q,
		rec.SignalID,
		rec.Signal.Symbol,
		string(rec.Signal.Direction),
		rec.Signal.CompositeScore,
		string(rec.Signal.Classification),
		rec.Signal.ConfluencePct,
		rec.Signal.ReferencePrice,
		string(rec.State),
		rec.FinalConfidence(),
		rec.RejectReason,
		string(history),
		rec.Signal.DetectedAt,
		rec.ResolvedAt,
	)
	return err
}

func (a *ClickHouseArchive) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.ConfirmationRecord, error) {
	q := fmt.Sprintf(`SELECT signal_id, symbol, direction, composite_score, classification,
		confluence_pct, reference_price, state, reject_reason, stage_history,
		detected_at, resolved_at
		FROM %s WHERE symbol = ? AND detected_at >= ? AND detected_at <= ?
		ORDER BY detected_at DESC LIMIT ?`, a.table)
	rows, err := a.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConfirmationRecord
	for rows.Next() {
		var rec models.ConfirmationRecord
		var direction, classification, state, history string
		if err := rows.Scan(
			&rec.SignalID,
			&rec.Signal.Symbol,
			&direction,
			&rec.Signal.CompositeScore,
			&classification,
			&rec.Signal.ConfluencePct,
			&rec.Signal.ReferencePrice,
			&state,
			&rec.RejectReason,
			&history,
			&rec.Signal.DetectedAt,
			&rec.ResolvedAt,
		); err != nil {
			return nil, err
		}
		rec.Signal.ID = rec.SignalID
		rec.Signal.Direction = models.Direction(direction)
		rec.Signal.Classification = models.Classification(classification)
		rec.State = models.ConfirmationState(state)
		if history != "" {
			if err := json.Unmarshal([]byte(history), &rec.StageHistory); err != nil {
				return nil, fmt.Errorf("unmarshal stage history: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // pool managed by pkg client
}

// KafkaSignalPublisher implements SignalPublisher over the shared
// producer. Messages key by symbol so consumers see per-symbol order.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates the Kafka-backed event publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishConfirmed(ctx context.Context, ev *models.SignalConfirmed) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
