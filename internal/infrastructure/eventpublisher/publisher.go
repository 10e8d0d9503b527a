package eventpublisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// EventPublisher drains the transactional outbox. Ledger writes enqueue
// events in the same transaction as the entry; this worker delivers them
// at-least-once, so downstream consumers must dedupe on event ID.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     *slog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// Publisher delivers a single outbox event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     *slog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	Retention  time.Duration // How long published rows are kept
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Retention == 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the publishing loop until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info("event publisher started",
		slog.Int("batch_size", ep.batchSize),
		slog.Duration("interval", ep.interval))

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	// Drain immediately on start
	if err := ep.drain(ctx); err != nil {
		ep.logger.Error("error draining outbox on start", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.drain(ctx); err != nil {
				ep.logger.Error("error draining outbox", slog.String("error", err.Error()))
			}
		}
	}
}

// drain fetches and publishes one batch of unpublished events, then sweeps
// published rows past the retention window.
func (ep *EventPublisher) drain(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.logger.Error("failed to publish event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()))
			// Other events in the batch are independent; keep going.
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			// Stop the batch: an event that was delivered but not marked
			// would be re-delivered next tick, which is acceptable, but
			// repeated marking failures point at the store being down.
			ep.logger.Error("failed to mark event as published",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
			return err
		}

		ep.logger.Debug("event published",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID))
	}

	deleted, err := ep.outboxRepo.DeletePublished(ctx, time.Now().Add(-ep.retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		ep.logger.Info("swept published events", slog.Int64("deleted", deleted))
	}

	return nil
}

// LogPublisher writes events to the log. It is the default sink when no
// message broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info("event published",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_type", event.AggregateType),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("payload", string(payload)))

	return nil
}

// RedisPublisher fans events out over a Redis pub/sub channel so other
// services (notifications, fraud review) can react to ledger activity.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a RedisPublisher on the given channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "earnings.events"
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends the event as a JSON envelope.
func (p *RedisPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	envelope := map[string]any{
		"id":             event.ID,
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"payload":        event.Payload,
		"created_at":     event.CreatedAt,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.channel, body).Err()
}
