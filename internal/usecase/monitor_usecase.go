package usecase

import (
	"context"

	"github.com/leadpay/earnings/internal/domain"
)

// MonitorUseCase serves the admin webhook monitor: read-only aggregations
// over the webhook log, never authoritative for balances.
type MonitorUseCase struct {
	logRepo WebhookLogRepository
}

// NewMonitorUseCase creates a new MonitorUseCase.
func NewMonitorUseCase(logRepo WebhookLogRepository) *MonitorUseCase {
	return &MonitorUseCase{logRepo: logRepo}
}

// Stats returns per-provider delivery aggregates.
func (uc *MonitorUseCase) Stats(ctx context.Context) ([]*domain.ProviderStats, error) {
	return uc.logRepo.StatsByProvider(ctx)
}

// RecentInput represents input for listing recent webhook deliveries.
type RecentInput struct {
	Provider string
	Limit    int
	Offset   int
}

// Recent lists recent webhook log records, optionally filtered by provider.
func (uc *MonitorUseCase) Recent(ctx context.Context, input RecentInput) ([]*domain.WebhookLogRecord, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.logRepo.ListRecent(ctx, input.Provider, limit, offset)
}
