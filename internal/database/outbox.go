package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessed  = "processed"
	OutboxStatusFailed     = "failed"
	OutboxStatusDeadLetter = "dead_letter"

	// MaxRetryCount is the number of relay attempts before an event is
	// moved to the dead letter status.
	MaxRetryCount = 5
)

// OutboxEvent is a row in the transactional outbox. Events are written in
// the same transaction as the state change they describe and shipped to a
// Redis stream by the relay.
type OutboxEvent struct {
	ID            uuid.UUID       `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	TargetStream  string          `db:"target_stream"`
	Status        string          `db:"status"`
	RetryCount    int             `db:"retry_count"`
	ErrorMessage  *string         `db:"error_message"`
	CreatedAt     time.Time       `db:"created_at"`
	ProcessedAt   *time.Time      `db:"processed_at"`
	NextRetryAt   *time.Time      `db:"next_retry_at"`
}

// OutboxRepository handles outbox event persistence.
type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// InsertWithTx inserts an event into the outbox within a transaction.
func (r *OutboxRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, event *OutboxEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = OutboxStatusPending
	}
	if event.TargetStream == "" {
		event.TargetStream = "stream:price_events"
	}

	now := time.Now()
	event.CreatedAt = now
	if event.NextRetryAt == nil {
		event.NextRetryAt = &now
	}

	query := `
		INSERT INTO outbox_event (
			id, aggregate_type, aggregate_id, event_type,
			payload, target_stream, status, retry_count,
			created_at, next_retry_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := tx.Exec(ctx, query,
		event.ID, event.AggregateType, event.AggregateID, event.EventType,
		event.Payload, event.TargetStream, event.Status, event.RetryCount,
		event.CreatedAt, event.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// GetPending returns events due for a relay attempt, oldest first.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type,
			   payload, target_stream, status, retry_count,
			   error_message, created_at, processed_at, next_retry_at
		FROM outbox_event
		WHERE status IN ($1, $2) AND next_retry_at <= now()
		ORDER BY created_at ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType,
			&e.Payload, &e.TargetStream, &e.Status, &e.RetryCount,
			&e.ErrorMessage, &e.CreatedAt, &e.ProcessedAt, &e.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

// MarkProcessed records a successful relay of the event.
func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_event SET
			status = $2,
			processed_at = now()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, OutboxStatusProcessed)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	return nil
}

// MarkFailed bumps the retry count with exponential backoff, moving the
// event to dead letter once MaxRetryCount is reached.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	query := `
		UPDATE outbox_event SET
			status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE $2 END,
			retry_count = retry_count + 1,
			error_message = $5,
			next_retry_at = now() + (interval '1 minute' * power(2, retry_count))
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, OutboxStatusFailed, MaxRetryCount, OutboxStatusDeadLetter, cause.Error())
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}

	return nil
}
