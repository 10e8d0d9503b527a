package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

const uniqProcessedDelivery = "processed_deliveries_pkey"

// DeliveryRepository implements usecase.DeliveryRepository over the
// processed_deliveries table.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository creates a new DeliveryRepository.
func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// MarkApplied inserts the delivery marker within the caller's transaction so
// the marker and the reversal entry commit or roll back together.
func (r *DeliveryRepository) MarkApplied(ctx context.Context, tx usecase.Transaction, d *domain.ProcessedDelivery) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO processed_deliveries (provider, external_id, event_type, entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := pgxTx.Exec(ctx, query, d.Provider, d.ExternalID, d.EventType, d.EntryID, d.CreatedAt)

	if isUniqueViolation(err, uniqProcessedDelivery) {
		return domain.ErrDuplicateExternalRef
	}

	return err
}
