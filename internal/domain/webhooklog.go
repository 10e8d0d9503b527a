package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookLogStatus tracks the processing outcome of a single delivery.
type WebhookLogStatus string

const (
	WebhookStatusReceived  WebhookLogStatus = "received"
	WebhookStatusProcessed WebhookLogStatus = "processed"
	WebhookStatusDuplicate WebhookLogStatus = "duplicate"
	WebhookStatusError     WebhookLogStatus = "error"
)

// WebhookLogRecord is the append-only diagnostic trace of a webhook delivery
// attempt. It never drives balance; each delivery (including duplicates) gets
// its own row. After creation only status, latency and error message are
// finalized.
type WebhookLogRecord struct {
	CreatedAt        time.Time
	ID               string
	Provider         string
	EventType        string
	Status           WebhookLogStatus
	RawPayload       string
	UserRef          string
	TransactionRef   string
	Amount           decimal.Decimal
	ProcessingTimeMs int64
	ErrorMessage     string
}

// ProcessedDelivery marks a reversal delivery as applied. The earning path
// is deduped by the unique index over its external ref; reversals reuse the
// original's ref, so their dedupe key includes the provider event type and
// lives in its own table, written in the same transaction as the reversal
// entry.
type ProcessedDelivery struct {
	Provider   string
	ExternalID string
	EventType  string
	EntryID    string
	CreatedAt  time.Time
}

// ProviderStats is the admin monitor aggregation over webhook_logs.
type ProviderStats struct {
	Provider           string
	Total              int64
	Processed          int64
	Duplicates         int64
	Errors             int64
	PremiumActivations int64
	AvgProcessingMs    float64
	LastEventAt        *time.Time
}
