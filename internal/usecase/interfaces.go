package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
)

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetEarningByRef(ctx context.Context, tx Transaction, ref domain.ExternalRef) (*domain.LedgerEntry, error)
	SumReversals(ctx context.Context, tx Transaction, originalEntryID string) (decimal.Decimal, error)
	History(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, *domain.RewardsSummary, error)
	SumByUser(ctx context.Context, userID string) (available, lifetime decimal.Decimal, err error)
}

// BalanceRepository defines data access for the per-user balance cache rows.
type BalanceRepository interface {
	// GetForUpdate locks the user's balance row, creating it first if the
	// user has no ledger history yet. This is the per-user serialization
	// point for all ledger mutations.
	GetForUpdate(ctx context.Context, tx Transaction, userID string) (*domain.Balance, error)
	Get(ctx context.Context, userID string) (*domain.Balance, error)
	Update(ctx context.Context, tx Transaction, userID string, available, lifetime decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Balance, error)
}

// WithdrawalRepository defines data access for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, w *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.WithdrawalRequest, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.WithdrawalStatus, rejectReason, confirmationRef string, processedAt *time.Time) error
	History(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, *domain.WithdrawalSummary, error)
}

// WebhookLogRepository defines data access for the webhook delivery log.
type WebhookLogRepository interface {
	Create(ctx context.Context, rec *domain.WebhookLogRecord) error
	Finalize(ctx context.Context, id string, status domain.WebhookLogStatus, errorMessage string, processingTimeMs int64) error
	HasProcessed(ctx context.Context, provider, transactionRef, eventType string) (bool, error)
	StatsByProvider(ctx context.Context) ([]*domain.ProviderStats, error)
	ListRecent(ctx context.Context, provider string, limit, offset int) ([]*domain.WebhookLogRecord, error)
}

// DeliveryRepository records applied reversal deliveries under a unique key
// so a redelivery is refused by storage even when the webhook log was never
// finalized and the fast-path guard is unavailable.
type DeliveryRepository interface {
	// MarkApplied inserts the delivery marker inside the caller's
	// transaction. A second marker for the same (provider, external id,
	// event type) returns domain.ErrDuplicateExternalRef.
	MarkApplied(ctx context.Context, tx Transaction, d *domain.ProcessedDelivery) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// ProviderAdapter normalizes a provider-specific webhook payload into the
// canonical incoming event. Normalization has no side effects; signature
// verification happens before anything else.
type ProviderAdapter interface {
	Provider() string
	Normalize(body []byte, header http.Header) (*domain.IncomingEvent, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations for derived read models.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DedupeGuard short-circuits concurrent duplicate webhook deliveries before
// they reach storage. It is a fast path only; the unique constraint on
// ledger external refs remains authoritative.
type DedupeGuard interface {
	// Acquire returns false if the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// IdempotencyStore caches API responses keyed by client idempotency keys.
type IdempotencyStore interface {
	// CheckAndSet returns (true, cachedResponse) if the key was already
	// claimed, otherwise claims it and returns (false, nil).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
