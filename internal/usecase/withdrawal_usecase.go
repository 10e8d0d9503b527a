package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/infrastructure/metrics"
)

// WithdrawalUseCase owns the withdrawal request state machine. Creation holds
// funds by writing a withdrawal_debit entry in the same transaction as the
// request row, so a concurrent second request cannot see an undebited
// balance.
type WithdrawalUseCase struct {
	txManager      TransactionManager
	withdrawalRepo WithdrawalRepository
	balanceRepo    BalanceRepository
	entryRepo      EntryRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	cache          Cache
	minAmount      decimal.Decimal
	metrics        *metrics.Metrics
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase. minAmount is the
// configured minimum withdrawal; zero disables the floor.
func NewWithdrawalUseCase(
	txManager TransactionManager,
	withdrawalRepo WithdrawalRepository,
	balanceRepo BalanceRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	minAmount decimal.Decimal,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:      txManager,
		withdrawalRepo: withdrawalRepo,
		balanceRepo:    balanceRepo,
		entryRepo:      entryRepo,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		minAmount:      minAmount,
	}
}

// WithCache attaches the balance read cache for invalidation.
func (uc *WithdrawalUseCase) WithCache(cache Cache) *WithdrawalUseCase {
	uc.cache = cache
	return uc
}

// WithMetrics attaches Prometheus metrics.
func (uc *WithdrawalUseCase) WithMetrics(m *metrics.Metrics) *WithdrawalUseCase {
	uc.metrics = m
	return uc
}

// RequestInput represents a user's withdrawal request.
type RequestInput struct {
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	Method      string
	Destination string
}

// Request validates and creates a withdrawal in pending state, atomically
// debiting the balance.
func (uc *WithdrawalUseCase) Request(ctx context.Context, input RequestInput) (*domain.WithdrawalRequest, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.Amount.LessThan(uc.minAmount) {
		return nil, domain.ErrAmountBelowMinimum
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if err := domain.ValidateDestination(input.Method, input.Destination); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := balance.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	debit := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		UserID:      input.UserID,
		Kind:        domain.EntryKindWithdrawalDebit,
		Amount:      input.Amount.Neg(),
		Currency:    input.Currency,
		Description: "withdrawal hold",
		CreatedAt:   now,
	}

	withdrawal := &domain.WithdrawalRequest{
		ID:           uc.idGen.Generate(),
		UserID:       input.UserID,
		Amount:       input.Amount,
		Currency:     input.Currency,
		Method:       input.Method,
		Destination:  input.Destination,
		Status:       domain.WithdrawalStatusPending,
		DebitEntryID: debit.ID,
		CreatedAt:    now,
	}

	if err := uc.entryRepo.Create(txCtx, tx, debit); err != nil {
		return nil, err
	}

	available, lifetime := balance.ApplyEntry(debit)
	if err := uc.balanceRepo.Update(txCtx, tx, input.UserID, available, lifetime, now); err != nil {
		return nil, err
	}

	if err := uc.withdrawalRepo.Create(txCtx, tx, withdrawal); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   withdrawal.ID,
		AggregateType: domain.AggregateTypeWithdrawal,
		EventType:     domain.EventTypeWithdrawalRequested,
		Payload: map[string]any{
			"withdrawal_id": withdrawal.ID,
			"user_id":       withdrawal.UserID,
			"amount":        withdrawal.Amount.String(),
			"method":        withdrawal.Method,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, input.UserID)

	if uc.metrics != nil {
		uc.metrics.WithdrawalTransitions.WithLabelValues(string(domain.WithdrawalStatusPending)).Inc()
	}

	return withdrawal, nil
}

// MarkProcessing hands a pending withdrawal off to the payment rail. This
// separates "accepted and funds held" from "actually sent".
func (uc *WithdrawalUseCase) MarkProcessing(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return uc.transition(ctx, id, domain.WithdrawalStatusProcessing, "", "", nil)
}

// Complete marks a processing withdrawal as paid out. The debit entry already
// reflects the outflow, so no balance change happens here.
func (uc *WithdrawalUseCase) Complete(ctx context.Context, id, confirmationRef string) (*domain.WithdrawalRequest, error) {
	now := time.Now().UTC()
	return uc.transition(ctx, id, domain.WithdrawalStatusCompleted, "", confirmationRef, &now)
}

// Reject terminates a pending or processing withdrawal and restores the held
// funds with a withdrawal_release entry.
func (uc *WithdrawalUseCase) Reject(ctx context.Context, id, reason string) (*domain.WithdrawalRequest, error) {
	now := time.Now().UTC()
	return uc.transition(ctx, id, domain.WithdrawalStatusRejected, reason, "", &now)
}

// GetByID returns a withdrawal request.
func (uc *WithdrawalUseCase) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return uc.withdrawalRepo.GetByID(ctx, id)
}

// History returns the user's withdrawal requests with a running summary from
// the same snapshot.
func (uc *WithdrawalUseCase) History(ctx context.Context, input HistoryInput) ([]*domain.WithdrawalRequest, *domain.WithdrawalSummary, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.withdrawalRepo.History(ctx, input.UserID, limit, offset)
}

func (uc *WithdrawalUseCase) transition(
	ctx context.Context,
	id string,
	target domain.WithdrawalStatus,
	rejectReason, confirmationRef string,
	processedAt *time.Time,
) (*domain.WithdrawalRequest, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	withdrawal, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if !withdrawal.CanTransition(target) {
		return nil, domain.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()

	if target == domain.WithdrawalStatusRejected {
		if err := uc.releaseHold(txCtx, tx, withdrawal, now); err != nil {
			return nil, err
		}
	}

	if err := uc.withdrawalRepo.UpdateStatus(txCtx, tx, id, target, rejectReason, confirmationRef, processedAt); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   withdrawal.ID,
		AggregateType: domain.AggregateTypeWithdrawal,
		EventType:     domain.EventTypeWithdrawalStatusChanged,
		Payload: map[string]any{
			"withdrawal_id": withdrawal.ID,
			"user_id":       withdrawal.UserID,
			"from":          string(withdrawal.Status),
			"to":            string(target),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if target == domain.WithdrawalStatusRejected {
		uc.invalidateBalance(ctx, withdrawal.UserID)
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalTransitions.WithLabelValues(string(target)).Inc()
	}

	withdrawal.Status = target
	withdrawal.RejectReason = rejectReason
	withdrawal.ConfirmationRef = confirmationRef
	withdrawal.ProcessedAt = processedAt

	return withdrawal, nil
}

// releaseHold restores the held amount when a withdrawal is rejected.
func (uc *WithdrawalUseCase) releaseHold(ctx context.Context, tx Transaction, w *domain.WithdrawalRequest, now time.Time) error {
	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, w.UserID)
	if err != nil {
		return err
	}

	release := &domain.LedgerEntry{
		ID:             uc.idGen.Generate(),
		UserID:         w.UserID,
		Kind:           domain.EntryKindWithdrawalRelease,
		Amount:         w.Amount,
		Currency:       w.Currency,
		RelatedEntryID: &w.DebitEntryID,
		Description:    "withdrawal hold released",
		CreatedAt:      now,
	}

	if err := uc.entryRepo.Create(ctx, tx, release); err != nil {
		return err
	}

	available, lifetime := balance.ApplyEntry(release)

	return uc.balanceRepo.Update(ctx, tx, w.UserID, available, lifetime, now)
}

func (uc *WithdrawalUseCase) invalidateBalance(ctx context.Context, userID string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, balanceCacheKey(userID))
	}
}
