package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/infrastructure/metrics"
)

// LedgerUseCase is the ledger engine: it applies accepted events as immutable
// entries and maintains the derived per-user balance. All mutations for one
// user are serialized on the user's balance row lock.
type LedgerUseCase struct {
	txManager    TransactionManager
	entryRepo    EntryRepository
	balanceRepo  BalanceRepository
	outboxRepo   OutboxRepository
	deliveryRepo DeliveryRepository
	idGen        IDGenerator
	cache        Cache
	tiers        domain.TierTable
	metrics      *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	balanceRepo BalanceRepository,
	outboxRepo OutboxRepository,
	deliveryRepo DeliveryRepository,
	idGen IDGenerator,
	tiers domain.TierTable,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		entryRepo:    entryRepo,
		balanceRepo:  balanceRepo,
		outboxRepo:   outboxRepo,
		deliveryRepo: deliveryRepo,
		idGen:        idGen,
		tiers:        tiers,
	}
}

// WithCache attaches a read cache for balances.
func (uc *LedgerUseCase) WithCache(cache Cache) *LedgerUseCase {
	uc.cache = cache
	return uc
}

// WithMetrics attaches Prometheus metrics.
func (uc *LedgerUseCase) WithMetrics(m *metrics.Metrics) *LedgerUseCase {
	uc.metrics = m
	return uc
}

// RecordEarningInput represents a pre-priced CPA earning.
type RecordEarningInput struct {
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	Ref         domain.ExternalRef
	Description string
}

// RecordEarning applies an earning event as a new ledger entry. A second
// application of the same external ref returns ErrDuplicateExternalRef and
// leaves the ledger untouched.
func (uc *LedgerUseCase) RecordEarning(ctx context.Context, input RecordEarningInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateEventAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	return uc.append(ctx, &domain.LedgerEntry{
		UserID:      input.UserID,
		Kind:        domain.EntryKindEarning,
		Amount:      input.Amount,
		Currency:    input.Currency,
		ExternalRef: &input.Ref,
		Description: input.Description,
	})
}

// RecordSaleInput represents a commission-bearing affiliate sale.
type RecordSaleInput struct {
	UserID      string
	SaleAmount  decimal.Decimal
	Currency    string
	Ref         domain.ExternalRef
	Description string
}

// RecordSale credits the commission on an affiliate sale. The commission rate
// is resolved from the lifetime approved earnings visible under the balance
// row lock, so a sale that arrives right after a threshold crossing uses the
// new tier rate.
func (uc *LedgerUseCase) RecordSale(ctx context.Context, input RecordSaleInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateEventAmount(input.SaleAmount); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
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

	rate := uc.tiers.Rate(balance.LifetimeEarnings)
	commission := input.SaleAmount.Mul(rate).RoundDown(2)
	if commission.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		UserID:      input.UserID,
		Kind:        domain.EntryKindEarning,
		Amount:      commission,
		Currency:    input.Currency,
		ExternalRef: &input.Ref,
		Description: fmt.Sprintf("%s (sale %s at rate %s)", input.Description, input.SaleAmount, rate),
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.applyLocked(txCtx, tx, balance, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, entry)

	return entry, nil
}

// ReverseInput identifies the earning to reverse. A zero Amount reverses the
// full remaining unreversed magnitude. A non-empty EventType marks the call as
// a provider delivery: the (provider, external id, event type) key is recorded
// with the reversal and a redelivery is refused. Direct reversals leave it
// empty and stay repeatable up to the original's magnitude.
type ReverseInput struct {
	Ref       domain.ExternalRef
	Amount    decimal.Decimal
	EventType string
}

// Reverse applies a chargeback against a previously recorded earning. The
// reversal magnitude must not exceed the remaining unreversed magnitude of
// the original; violations are rejected, never clamped.
func (uc *LedgerUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	original, err := uc.entryRepo.GetEarningByRef(txCtx, tx, input.Ref)
	if err != nil {
		return nil, err
	}

	// The marker commits atomically with the reversal entry, so a redelivery
	// is refused by the primary key even if nothing after the commit ran.
	if input.EventType != "" {
		err := uc.deliveryRepo.MarkApplied(txCtx, tx, &domain.ProcessedDelivery{
			Provider:   input.Ref.Provider,
			ExternalID: input.Ref.ExternalID,
			EventType:  input.EventType,
			EntryID:    original.ID,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
	}

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, original.UserID)
	if err != nil {
		return nil, err
	}

	// Reversal inserts for this entry happen under the same balance lock,
	// so the sum is stable for the rest of the transaction.
	reversed, err := uc.entryRepo.SumReversals(txCtx, tx, original.ID)
	if err != nil {
		return nil, err
	}

	remaining := original.Amount.Sub(reversed)

	amount := input.Amount
	if amount.IsZero() {
		amount = remaining
	}

	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(remaining) {
		return nil, domain.ErrOverReversal
	}

	entry := &domain.LedgerEntry{
		ID:             uc.idGen.Generate(),
		UserID:         original.UserID,
		Kind:           domain.EntryKindReversal,
		Amount:         amount.Neg(),
		Currency:       original.Currency,
		ExternalRef:    &input.Ref,
		RelatedEntryID: &original.ID,
		Description:    "reversal of " + original.ID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := uc.applyLocked(txCtx, tx, balance, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, entry)

	return entry, nil
}

// GetBalance returns the user's available balance. A user with no ledger
// history has a zero balance.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, balanceCacheKey(userID)); err == nil {
			if d, err := decimal.NewFromString(cached); err == nil {
				return d, nil
			}
		}
	}

	balance, err := uc.balanceRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, balanceCacheKey(userID), balance.Available.String(), BalanceCacheTTL)
	}

	return balance.Available, nil
}

// HistoryInput represents input for listing rewards history.
type HistoryInput struct {
	UserID string
	Limit  int
	Offset int
}

// History returns earning/reversal entries together with a summary computed
// from the same snapshot.
func (uc *LedgerUseCase) History(ctx context.Context, input HistoryInput) ([]*domain.LedgerEntry, *domain.RewardsSummary, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.entryRepo.History(ctx, input.UserID, limit, offset)
}

// append records a single entry under a fresh transaction.
func (uc *LedgerUseCase) append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = time.Now().UTC()

	if err := uc.applyLocked(txCtx, tx, balance, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, entry)

	return entry, nil
}

// applyLocked inserts the entry, recomputes the balance row and stages the
// outbox event. The caller holds the user's balance row lock.
func (uc *LedgerUseCase) applyLocked(ctx context.Context, tx Transaction, balance *domain.Balance, entry *domain.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	available, lifetime := balance.ApplyEntry(entry)
	if available.IsNegative() {
		return domain.ErrInsufficientBalance
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	if err := uc.balanceRepo.Update(ctx, tx, entry.UserID, available, lifetime, entry.CreatedAt); err != nil {
		return err
	}

	return uc.outboxRepo.Create(ctx, tx, uc.entryEvent(entry))
}

func (uc *LedgerUseCase) entryEvent(entry *domain.LedgerEntry) *domain.OutboxEvent {
	eventType := domain.EventTypeEarningRecorded
	payload := map[string]any{
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
		"amount":   entry.Amount.String(),
		"currency": entry.Currency,
	}

	if entry.ExternalRef != nil {
		payload["provider"] = entry.ExternalRef.Provider
		payload["external_id"] = entry.ExternalRef.ExternalID
	}

	if entry.Kind == domain.EntryKindReversal {
		eventType = domain.EventTypeEarningReversed
		if entry.RelatedEntryID != nil {
			payload["original_entry_id"] = *entry.RelatedEntryID
		}
	}

	return &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeLedgerEntry,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     entry.CreatedAt,
	}
}

// afterCommit invalidates the balance read cache and records metrics.
func (uc *LedgerUseCase) afterCommit(ctx context.Context, entry *domain.LedgerEntry) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, balanceCacheKey(entry.UserID))
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(string(entry.Kind)).Inc()
	}
}

func balanceCacheKey(userID string) string {
	return "balance:" + userID
}
