package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/infrastructure/metrics"
)

// WebhookOutcome classifies how a delivery was handled.
type WebhookOutcome string

const (
	// OutcomeProcessed means the event was applied to the ledger.
	OutcomeProcessed WebhookOutcome = "processed"
	// OutcomeDuplicate means the event was already applied; acknowledged
	// without effect so the provider stops retrying.
	OutcomeDuplicate WebhookOutcome = "duplicate"
	// OutcomeRejected means the payload is unauthenticated, malformed or
	// violates a ledger invariant; the provider must not retry.
	OutcomeRejected WebhookOutcome = "rejected"
	// OutcomeFailed means a transient failure; the provider should retry.
	OutcomeFailed WebhookOutcome = "failed"
)

// WebhookResult is returned to the HTTP handler for status mapping.
type WebhookResult struct {
	Outcome WebhookOutcome
	LogID   string
	Err     error
}

// LedgerService is the slice of the ledger engine the webhook pipeline needs.
type LedgerService interface {
	RecordEarning(ctx context.Context, input RecordEarningInput) (*domain.LedgerEntry, error)
	RecordSale(ctx context.Context, input RecordSaleInput) (*domain.LedgerEntry, error)
	Reverse(ctx context.Context, input ReverseInput) (*domain.LedgerEntry, error)
}

// WithdrawalCompleter completes withdrawals on payment confirmations.
type WithdrawalCompleter interface {
	Complete(ctx context.Context, id, confirmationRef string) (*domain.WithdrawalRequest, error)
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
}

// WebhookUseCase is the ingestion pipeline: normalize, admit, log, apply.
// Every delivery gets its own webhook log row regardless of outcome; the row
// is written with status received before any ledger mutation is attempted.
type WebhookUseCase struct {
	adapters    map[string]ProviderAdapter
	ledger      LedgerService
	withdrawals WithdrawalCompleter
	logRepo     WebhookLogRepository
	guard       DedupeGuard
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewWebhookUseCase creates a new WebhookUseCase.
func NewWebhookUseCase(
	adapters []ProviderAdapter,
	ledger LedgerService,
	withdrawals WithdrawalCompleter,
	logRepo WebhookLogRepository,
	idGen IDGenerator,
) *WebhookUseCase {
	byProvider := make(map[string]ProviderAdapter, len(adapters))
	for _, a := range adapters {
		byProvider[a.Provider()] = a
	}

	return &WebhookUseCase{
		adapters:    byProvider,
		ledger:      ledger,
		withdrawals: withdrawals,
		logRepo:     logRepo,
		idGen:       idGen,
	}
}

// WithDedupeGuard attaches the Redis fast-path duplicate guard.
func (uc *WebhookUseCase) WithDedupeGuard(guard DedupeGuard) *WebhookUseCase {
	uc.guard = guard
	return uc
}

// WithRetrier attaches a retrier for transient storage errors.
func (uc *WebhookUseCase) WithRetrier(retrier Retrier) *WebhookUseCase {
	uc.retrier = retrier
	return uc
}

// WithMetrics attaches Prometheus metrics.
func (uc *WebhookUseCase) WithMetrics(m *metrics.Metrics) *WebhookUseCase {
	uc.metrics = m
	return uc
}

// Process handles one webhook delivery end to end.
func (uc *WebhookUseCase) Process(ctx context.Context, providerID string, body []byte, header http.Header) *WebhookResult {
	start := time.Now()

	adapter, ok := uc.adapters[providerID]
	if !ok {
		return &WebhookResult{Outcome: OutcomeRejected, Err: domain.ErrUnknownProvider}
	}

	event, err := adapter.Normalize(body, header)
	if err != nil {
		// Adapter failures never create partial ledger state; only the
		// diagnostic log row is written.
		logID := uc.logDelivery(ctx, providerID, "", string(body), nil, domain.WebhookStatusError, err.Error(), msSince(start))
		uc.observe(providerID, domain.WebhookStatusError, start)

		return &WebhookResult{Outcome: OutcomeRejected, LogID: logID, Err: err}
	}

	logID := uc.logDelivery(ctx, providerID, event.EventType, string(body), event, domain.WebhookStatusReceived, "", 0)

	result := uc.apply(ctx, event)
	result.LogID = logID

	status := domain.WebhookStatusProcessed
	errMsg := ""

	switch result.Outcome {
	case OutcomeDuplicate:
		status = domain.WebhookStatusDuplicate
	case OutcomeRejected, OutcomeFailed:
		status = domain.WebhookStatusError
		if result.Err != nil {
			errMsg = result.Err.Error()
		}
	}

	// A failed finalize leaves a traceable received-only row; the delivery
	// outcome is not affected by diagnostics.
	_ = uc.logRepo.Finalize(ctx, logID, status, errMsg, msSince(start))

	uc.observe(providerID, status, start)

	return result
}

// apply routes the normalized event to the ledger or withdrawal lifecycle.
func (uc *WebhookUseCase) apply(ctx context.Context, event *domain.IncomingEvent) *WebhookResult {
	guardKey := fmt.Sprintf("%s:%s:%s", event.Provider, event.ExternalID, event.Kind)

	if uc.guard != nil {
		acquired, err := uc.guard.Acquire(ctx, guardKey, DedupeGuardTTL)
		if err == nil && !acquired {
			return &WebhookResult{Outcome: OutcomeDuplicate}
		}
		// A guard error degrades to the storage-level checks.
	}

	var applyErr error

	operation := func() error {
		applyErr = uc.dispatch(ctx, event)
		return applyErr
	}

	if uc.retrier != nil {
		_ = uc.retrier.Retry(ctx, operation)
	} else {
		_ = operation()
	}

	if applyErr == nil {
		return &WebhookResult{Outcome: OutcomeProcessed}
	}

	if errors.Is(applyErr, domain.ErrDuplicateExternalRef) {
		return &WebhookResult{Outcome: OutcomeDuplicate}
	}

	// Whatever blocked the event must not block a later retry at the fast
	// path; the unique constraint still protects against double application.
	if uc.guard != nil {
		_ = uc.guard.Release(ctx, guardKey)
	}

	if isInvariantViolation(applyErr) {
		return &WebhookResult{Outcome: OutcomeRejected, Err: applyErr}
	}

	return &WebhookResult{Outcome: OutcomeFailed, Err: applyErr}
}

func (uc *WebhookUseCase) dispatch(ctx context.Context, event *domain.IncomingEvent) error {
	switch event.Kind {
	case domain.EventKindEarning:
		_, err := uc.ledger.RecordEarning(ctx, RecordEarningInput{
			UserID:      event.UserID,
			Amount:      event.Amount,
			Currency:    event.Currency,
			Ref:         event.Ref(),
			Description: event.OfferName,
		})
		return err

	case domain.EventKindSale:
		_, err := uc.ledger.RecordSale(ctx, RecordSaleInput{
			UserID:      event.UserID,
			SaleAmount:  event.Amount,
			Currency:    event.Currency,
			Ref:         event.Ref(),
			Description: event.OfferName,
		})
		return err

	case domain.EventKindReversal:
		// Reversal postbacks reuse the original transaction id, so the
		// earning unique index cannot dedupe them. The webhook log check is a
		// cheap fast path; the delivery marker written inside the reversal
		// transaction is what actually refuses a redelivery.
		seen, err := uc.logRepo.HasProcessed(ctx, event.Provider, event.ExternalID, event.EventType)
		if err != nil {
			return err
		}
		if seen {
			return domain.ErrDuplicateExternalRef
		}

		_, err = uc.ledger.Reverse(ctx, ReverseInput{
			Ref:       event.Ref(),
			Amount:    event.Amount,
			EventType: event.EventType,
		})
		return err

	case domain.EventKindPaymentConfirmation:
		if event.PayoutRef == "" {
			// Confirmations without a payout reference (e.g. premium
			// activations) are acknowledged and logged; no ledger effect.
			return nil
		}

		_, err := uc.withdrawals.Complete(ctx, event.PayoutRef, event.ExternalID)
		if errors.Is(err, domain.ErrInvalidStatusTransition) {
			// A duplicate is only a confirmation the withdrawal already
			// carries; anything else (pending, rejected, wrong batch) is a
			// provider error and must surface as one.
			w, getErr := uc.withdrawals.GetByID(ctx, event.PayoutRef)
			if getErr != nil {
				return getErr
			}
			if w.Status == domain.WithdrawalStatusCompleted && w.ConfirmationRef == event.ExternalID {
				return domain.ErrDuplicateExternalRef
			}
			return err
		}
		return err

	default:
		return domain.ErrMalformedPayload
	}
}

func (uc *WebhookUseCase) logDelivery(
	ctx context.Context,
	provider, eventType, rawPayload string,
	event *domain.IncomingEvent,
	status domain.WebhookLogStatus,
	errMsg string,
	processingMs int64,
) string {
	rec := &domain.WebhookLogRecord{
		ID:               uc.idGen.Generate(),
		Provider:         provider,
		EventType:        eventType,
		Status:           status,
		RawPayload:       rawPayload,
		ErrorMessage:     errMsg,
		ProcessingTimeMs: processingMs,
		CreatedAt:        time.Now().UTC(),
	}

	if event != nil {
		rec.UserRef = event.UserID
		rec.TransactionRef = event.ExternalID
		rec.Amount = event.Amount
	}

	if err := uc.logRepo.Create(ctx, rec); err != nil {
		return ""
	}

	return rec.ID
}

func (uc *WebhookUseCase) observe(provider string, status domain.WebhookLogStatus, start time.Time) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.WebhooksReceived.WithLabelValues(provider, string(status)).Inc()
	uc.metrics.WebhookProcessingSeconds.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// isInvariantViolation reports whether the error is a permanent rejection the
// provider must not retry.
func isInvariantViolation(err error) bool {
	for _, target := range []error{
		domain.ErrUnknownTransaction,
		domain.ErrOverReversal,
		domain.ErrInsufficientBalance,
		domain.ErrInvalidAmount,
		domain.ErrAmountTooLarge,
		domain.ErrInvalidCurrency,
		domain.ErrUnknownUser,
		domain.ErrWithdrawalNotFound,
		domain.ErrInvalidStatusTransition,
		domain.ErrMalformedPayload,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func msSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
