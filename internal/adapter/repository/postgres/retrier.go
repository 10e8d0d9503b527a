package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Concurrent webhook deliveries for the same user contend on the balance
// row; under serializable or repeatable-read settings Postgres resolves
// that with 40001/40P01, both safe to retry because the whole ledger
// transaction is replayed from the top.
const (
	pgErrDeadlockDetected     = "40P01"
	pgErrSerializationFailure = "40001"
)

// Retrier re-runs ledger transactions that lost a lock conflict, with
// exponential backoff. Implements usecase.Retrier.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          *slog.Logger
}

// NewRetrier creates a retrier with defaults sized for webhook handling:
// a provider redelivers on 5xx anyway, so give up quickly rather than
// hold the request open.
func NewRetrier() *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          slog.Default(),
	}
}

// WithLogger replaces the default slog logger.
func (r *Retrier) WithLogger(logger *slog.Logger) *Retrier {
	r.logger = logger
	return r
}

// Retry runs operation, replaying it on retryable conflicts until the
// retry budget or the context runs out. Non-retryable errors, including
// every domain error, pass through on the first attempt.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempts := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		attempts++
		if attempts > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn("transaction conflict, retrying",
			"error", err,
			"attempt", attempts,
		)
		return err
	}, backoff.WithContext(b, ctx))
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgErrDeadlockDetected || pgErr.Code == pgErrSerializationFailure
}
