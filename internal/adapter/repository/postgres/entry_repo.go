package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// uniqEarningRef is the partial unique index on (provider, external_id) for
// earning entries. Reversals reuse the original's external ref, so the index
// only covers earnings.
const uniqEarningRef = "uniq_ledger_entries_earning_ref"

// snapshotRead runs paired history reads against one consistent snapshot.
var snapshotRead = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts an entry within a transaction. A duplicate external ref on
// an earning returns domain.ErrDuplicateExternalRef.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries (
			id, user_id, kind, amount, currency,
			provider, external_id, related_entry_id, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var provider, externalID *string
	if entry.ExternalRef != nil {
		provider = &entry.ExternalRef.Provider
		externalID = &entry.ExternalRef.ExternalID
	}

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Kind),
		entry.Amount.String(),
		entry.Currency,
		provider,
		externalID,
		entry.RelatedEntryID,
		entry.Description,
		entry.CreatedAt,
	)

	if isUniqueViolation(err, uniqEarningRef) {
		return domain.ErrDuplicateExternalRef
	}

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	query := selectEntry + ` WHERE id = $1`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUnknownTransaction
	}

	return entry, err
}

// GetEarningByRef retrieves the earning entry carrying the external ref,
// locking it against concurrent reversals.
func (r *EntryRepository) GetEarningByRef(ctx context.Context, tx usecase.Transaction, ref domain.ExternalRef) (*domain.LedgerEntry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := selectEntry + `
		WHERE provider = $1 AND external_id = $2 AND kind = 'earning'
		FOR UPDATE
	`

	entry, err := scanEntry(pgxTx.QueryRow(ctx, query, ref.Provider, ref.ExternalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUnknownTransaction
	}

	return entry, err
}

// SumReversals returns the already-reversed magnitude of an earning as a
// positive number.
func (r *EntryRepository) SumReversals(ctx context.Context, tx usecase.Transaction, originalEntryID string) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT COALESCE(SUM(-amount), 0)::text
		FROM ledger_entries
		WHERE related_entry_id = $1 AND kind = 'reversal'
	`

	var sum string
	if err := pgxTx.QueryRow(ctx, query, originalEntryID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(sum)
}

// History lists a user's earning and reversal entries, newest first, together
// with a summary. Both reads run inside one repeatable read transaction, so
// the summary matches the snapshot the page was taken from.
func (r *EntryRepository) History(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, *domain.RewardsSummary, error) {
	tx, err := r.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := selectEntry + `
		WHERE user_id = $1 AND kind IN ('earning', 'reversal')
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := tx.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	rows.Close()

	summary, err := r.rewardsSummary(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return entries, summary, nil
}

// SumByUser recomputes the user's available balance and lifetime earnings
// from the entry log.
func (r *EntryRepository) SumByUser(ctx context.Context, userID string) (available, lifetime decimal.Decimal, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'earning'), 0)::text
		FROM ledger_entries
		WHERE user_id = $1
	`

	var availStr, lifetimeStr string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&availStr, &lifetimeStr); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	available, err = decimal.NewFromString(availStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	lifetime, err = decimal.NewFromString(lifetimeStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return available, lifetime, nil
}

func (r *EntryRepository) rewardsSummary(ctx context.Context, tx pgx.Tx, userID string) (*domain.RewardsSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'earning'), 0)::text,
			COALESCE(SUM(-amount) FILTER (WHERE kind = 'reversal'), 0)::text,
			COUNT(*) FILTER (WHERE kind = 'earning'),
			COUNT(*) FILTER (WHERE kind = 'reversal')
		FROM ledger_entries
		WHERE user_id = $1
	`

	var earningsStr, reversalsStr string
	summary := &domain.RewardsSummary{}

	err := tx.QueryRow(ctx, query, userID).Scan(
		&earningsStr,
		&reversalsStr,
		&summary.ApprovedCount,
		&summary.ReversedCount,
	)
	if err != nil {
		return nil, err
	}

	if summary.TotalEarnings, err = decimal.NewFromString(earningsStr); err != nil {
		return nil, err
	}
	if summary.TotalReversals, err = decimal.NewFromString(reversalsStr); err != nil {
		return nil, err
	}

	return summary, nil
}

const selectEntry = `
	SELECT id, user_id, kind, amount::text, currency,
	       provider, external_id, related_entry_id, description, created_at
	FROM ledger_entries
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var (
		entry      domain.LedgerEntry
		kind       string
		amountStr  string
		provider   *string
		externalID *string
	)

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&kind,
		&amountStr,
		&entry.Currency,
		&provider,
		&externalID,
		&entry.RelatedEntryID,
		&entry.Description,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.EntryKind(kind)

	if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, err
	}

	if provider != nil && externalID != nil {
		entry.ExternalRef = &domain.ExternalRef{Provider: *provider, ExternalID: *externalID}
	}

	return &entry, nil
}
