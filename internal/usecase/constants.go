package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database
	// transaction. Webhook handlers must answer within the provider's retry
	// window, so ledger transactions are bounded rather than open-ended.
	DefaultTransactionTimeout = 10 * time.Second

	// DedupeGuardTTL is how long the fast-path dedupe key for a webhook
	// delivery is held.
	DedupeGuardTTL = 48 * time.Hour

	// BalanceCacheTTL bounds staleness of the Redis balance read cache. The
	// cache is also invalidated after every committed ledger mutation.
	BalanceCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long client API idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
