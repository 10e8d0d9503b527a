package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
)

// WebhookLogRepository implements usecase.WebhookLogRepository. Log rows are
// written outside the ledger transaction: diagnostics must survive a rolled
// back mutation.
type WebhookLogRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookLogRepository creates a new WebhookLogRepository.
func NewWebhookLogRepository(pool *pgxpool.Pool) *WebhookLogRepository {
	return &WebhookLogRepository{pool: pool}
}

// Create inserts a delivery record.
func (r *WebhookLogRepository) Create(ctx context.Context, rec *domain.WebhookLogRecord) error {
	query := `
		INSERT INTO webhook_logs (
			id, provider, event_type, status, raw_payload,
			user_ref, transaction_ref, amount, processing_time_ms,
			error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Provider,
		rec.EventType,
		string(rec.Status),
		rec.RawPayload,
		rec.UserRef,
		rec.TransactionRef,
		rec.Amount.String(),
		rec.ProcessingTimeMs,
		rec.ErrorMessage,
		rec.CreatedAt,
	)

	return err
}

// Finalize records the delivery's outcome and latency.
func (r *WebhookLogRepository) Finalize(ctx context.Context, id string, status domain.WebhookLogStatus, errorMessage string, processingTimeMs int64) error {
	query := `
		UPDATE webhook_logs
		SET status = $2, error_message = $3, processing_time_ms = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, string(status), errorMessage, processingTimeMs)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrWebhookLogNotFound
	}

	return nil
}

// HasProcessed reports whether a delivery with the same provider, transaction
// ref and event type was already applied. This is what dedupes reversal
// postbacks, which reuse the original transaction id.
func (r *WebhookLogRepository) HasProcessed(ctx context.Context, provider, transactionRef, eventType string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM webhook_logs
			WHERE provider = $1 AND transaction_ref = $2 AND event_type = $3
			  AND status = 'processed'
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, provider, transactionRef, eventType).Scan(&exists)

	return exists, err
}

// StatsByProvider aggregates delivery outcomes per provider.
func (r *WebhookLogRepository) StatsByProvider(ctx context.Context) ([]*domain.ProviderStats, error) {
	query := `
		SELECT
			provider,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'processed'),
			COUNT(*) FILTER (WHERE status = 'duplicate'),
			COUNT(*) FILTER (WHERE status = 'error'),
			COUNT(*) FILTER (WHERE event_type = 'premium_activation' AND status = 'processed'),
			COALESCE(AVG(processing_time_ms) FILTER (WHERE status = 'processed'), 0),
			MAX(created_at)
		FROM webhook_logs
		GROUP BY provider
		ORDER BY provider
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*domain.ProviderStats
	for rows.Next() {
		s := &domain.ProviderStats{}
		err := rows.Scan(
			&s.Provider,
			&s.Total,
			&s.Processed,
			&s.Duplicates,
			&s.Errors,
			&s.PremiumActivations,
			&s.AvgProcessingMs,
			&s.LastEventAt,
		)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// ListRecent lists delivery records, newest first, optionally filtered by
// provider.
func (r *WebhookLogRepository) ListRecent(ctx context.Context, provider string, limit, offset int) ([]*domain.WebhookLogRecord, error) {
	query := `
		SELECT id, provider, event_type, status, raw_payload,
		       user_ref, transaction_ref, amount::text, processing_time_ms,
		       error_message, created_at
		FROM webhook_logs
		WHERE ($1 = '' OR provider = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, provider, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.WebhookLogRecord
	for rows.Next() {
		var (
			rec       domain.WebhookLogRecord
			status    string
			amountStr string
		)

		err := rows.Scan(
			&rec.ID,
			&rec.Provider,
			&rec.EventType,
			&status,
			&rec.RawPayload,
			&rec.UserRef,
			&rec.TransactionRef,
			&amountStr,
			&rec.ProcessingTimeMs,
			&rec.ErrorMessage,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		rec.Status = domain.WebhookLogStatus(status)

		if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, err
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}
