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

// BalanceRepository implements usecase.BalanceRepository. The balance row is
// the per-user serialization point: every mutation path locks it first.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// GetForUpdate locks the user's balance row, creating a zero row first if the
// user has no ledger history yet.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Balance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	insert := `
		INSERT INTO balances (user_id, available, lifetime_earnings, version, updated_at)
		VALUES ($1, 0, 0, 1, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := pgxTx.Exec(ctx, insert, userID); err != nil {
		return nil, err
	}

	query := selectBalance + ` WHERE user_id = $1 FOR UPDATE`

	return scanBalance(pgxTx.QueryRow(ctx, query, userID))
}

// Get retrieves a balance without locking.
func (r *BalanceRepository) Get(ctx context.Context, userID string) (*domain.Balance, error) {
	query := selectBalance + ` WHERE user_id = $1`

	balance, err := scanBalance(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBalanceNotFound
	}

	return balance, err
}

// Update writes the recomputed balance. The caller holds the row lock.
func (r *BalanceRepository) Update(ctx context.Context, tx usecase.Transaction, userID string, available, lifetime decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE balances
		SET available = $2, lifetime_earnings = $3, version = version + 1, updated_at = $4
		WHERE user_id = $1
	`

	_, err := pgxTx.Exec(ctx, query, userID, available.String(), lifetime.String(), updatedAt)

	return err
}

// List pages through all balance rows in user id order.
func (r *BalanceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Balance, error) {
	query := selectBalance + ` ORDER BY user_id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.Balance
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

const selectBalance = `
	SELECT user_id, available::text, lifetime_earnings::text, version, updated_at
	FROM balances
`

func scanBalance(row rowScanner) (*domain.Balance, error) {
	var (
		balance      domain.Balance
		availableStr string
		lifetimeStr  string
	)

	err := row.Scan(
		&balance.UserID,
		&availableStr,
		&lifetimeStr,
		&balance.Version,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if balance.Available, err = decimal.NewFromString(availableStr); err != nil {
		return nil, err
	}
	if balance.LifetimeEarnings, err = decimal.NewFromString(lifetimeStr); err != nil {
		return nil, err
	}

	return &balance, nil
}
