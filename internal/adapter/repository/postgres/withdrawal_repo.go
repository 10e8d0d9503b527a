package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

// Create inserts a withdrawal request within a transaction.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO withdrawal_requests (
			id, user_id, amount, currency, method, destination,
			status, reject_reason, confirmation_ref, debit_entry_id,
			created_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := pgxTx.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.Amount.String(),
		w.Currency,
		w.Method,
		w.Destination,
		string(w.Status),
		w.RejectReason,
		w.ConfirmationRef,
		w.DebitEntryID,
		w.CreatedAt,
		w.ProcessedAt,
	)

	return err
}

// GetByID retrieves a withdrawal request.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	query := selectWithdrawal + ` WHERE id = $1`

	w, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWithdrawalNotFound
	}

	return w, err
}

// GetByIDForUpdate locks a withdrawal row for a status transition.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := selectWithdrawal + ` WHERE id = $1 FOR UPDATE`

	w, err := scanWithdrawal(pgxTx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWithdrawalNotFound
	}

	return w, err
}

// UpdateStatus moves a withdrawal to a new status. The caller holds the row
// lock and has already validated the transition.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, rejectReason, confirmationRef string, processedAt *time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE withdrawal_requests
		SET status = $2, reject_reason = $3, confirmation_ref = $4, processed_at = $5
		WHERE id = $1
	`

	_, err := pgxTx.Exec(ctx, query, id, string(status), rejectReason, confirmationRef, processedAt)

	return err
}

// History lists a user's withdrawal requests, newest first, with a summary
// computed from the same repeatable read snapshot as the page.
func (r *WithdrawalRepository) History(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, *domain.WithdrawalSummary, error) {
	tx, err := r.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := selectWithdrawal + `
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := tx.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var withdrawals []*domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	rows.Close()

	summary, err := r.summary(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return withdrawals, summary, nil
}

func (r *WithdrawalRepository) summary(ctx context.Context, tx pgx.Tx, userID string) (*domain.WithdrawalSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)::text,
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM withdrawal_requests
		WHERE user_id = $1
	`

	var requestedStr, approvedStr string
	summary := &domain.WithdrawalSummary{}

	err := tx.QueryRow(ctx, query, userID).Scan(
		&requestedStr,
		&approvedStr,
		&summary.PendingCount,
		&summary.ProcessingCount,
		&summary.CompletedCount,
		&summary.RejectedCount,
	)
	if err != nil {
		return nil, err
	}

	if summary.TotalRequested, err = decimal.NewFromString(requestedStr); err != nil {
		return nil, err
	}
	if summary.TotalApproved, err = decimal.NewFromString(approvedStr); err != nil {
		return nil, err
	}

	return summary, nil
}

const selectWithdrawal = `
	SELECT id, user_id, amount::text, currency, method, destination,
	       status, reject_reason, confirmation_ref, debit_entry_id,
	       created_at, processed_at
	FROM withdrawal_requests
`

func scanWithdrawal(row rowScanner) (*domain.WithdrawalRequest, error) {
	var (
		w         domain.WithdrawalRequest
		amountStr string
		status    string
	)

	err := row.Scan(
		&w.ID,
		&w.UserID,
		&amountStr,
		&w.Currency,
		&w.Method,
		&w.Destination,
		&status,
		&w.RejectReason,
		&w.ConfirmationRef,
		&w.DebitEntryID,
		&w.CreatedAt,
		&w.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Status = domain.WithdrawalStatus(status)

	if w.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, err
	}

	return &w, nil
}
