package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the slice of the Redis API the relay needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// OutboxRepo is the slice of the outbox repository the relay needs.
type OutboxRepo interface {
	GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

// Relay ships outbox events to their target Redis streams.
type Relay struct {
	redis     RedisClient
	outbox    OutboxRepo
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

func NewRelay(db *DB, redisClient *redis.Client, logger *slog.Logger, config RelayConfig) *Relay {
	if config.PollInterval == 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	return &Relay{
		redis:     redisClient,
		outbox:    NewOutboxRepository(db),
		logger:    logger.With("component", "relay"),
		interval:  config.PollInterval,
		batchSize: config.BatchSize,
	}
}

// Start polls the outbox until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info("starting relay", "interval", r.interval, "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.processEvents(ctx); err != nil {
		r.logger.Error("failed to process events on startup", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.processEvents(ctx); err != nil {
				r.logger.Error("failed to process events", "error", err)
			}
		}
	}
}

func (r *Relay) processEvents(ctx context.Context) error {
	events, err := r.outbox.GetPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	if len(events) == 0 {
		return nil
	}

	r.logger.Debug("processing events", "count", len(events))

	for _, event := range events {
		if err := r.processEvent(ctx, event); err != nil {
			r.logger.Error("failed to process event",
				"event_id", event.ID,
				"aggregate_id", event.AggregateID,
				"error", err)
			// Keep going; the failed event gets retried by backoff.
		}
	}

	return nil
}

func (r *Relay) processEvent(ctx context.Context, event *OutboxEvent) error {
	if err := r.publishToRedis(ctx, event); err != nil {
		if markErr := r.outbox.MarkFailed(ctx, event.ID, err); markErr != nil {
			return fmt.Errorf("failed to mark event failed: %w (publish error: %v)", markErr, err)
		}
		return err
	}

	if err := r.outbox.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	r.logger.Debug("event relayed",
		"event_id", event.ID,
		"stream", event.TargetStream,
		"type", event.EventType)

	return nil
}

func (r *Relay) publishToRedis(ctx context.Context, event *OutboxEvent) error {
	var payload map[string]any
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	values := map[string]any{
		"event_id":   event.ID.String(),
		"event_type": event.EventType,
		"payload":    string(event.Payload),
	}

	if err := r.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: event.TargetStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", event.TargetStream, err)
	}

	return nil
}
