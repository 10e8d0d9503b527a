package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
	"github.com/leadpay/earnings/internal/usecase/mocks"
)

// stubLedger lets each test script the ledger's reaction to a dispatched
// event and count how often it was hit.
type stubLedger struct {
	earnings  int
	sales     int
	reversals int
	err       error
}

func (s *stubLedger) RecordEarning(ctx context.Context, input usecase.RecordEarningInput) (*domain.LedgerEntry, error) {
	s.earnings++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.LedgerEntry{ID: "entry-1", UserID: input.UserID, Amount: input.Amount}, nil
}

func (s *stubLedger) RecordSale(ctx context.Context, input usecase.RecordSaleInput) (*domain.LedgerEntry, error) {
	s.sales++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.LedgerEntry{ID: "entry-1", UserID: input.UserID}, nil
}

func (s *stubLedger) Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.LedgerEntry, error) {
	s.reversals++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.LedgerEntry{ID: "entry-2"}, nil
}

type stubCompleter struct {
	calls           int
	lastID, lastRef string
	err             error
	withdrawal      *domain.WithdrawalRequest
}

func (s *stubCompleter) Complete(ctx context.Context, id, confirmationRef string) (*domain.WithdrawalRequest, error) {
	s.calls++
	s.lastID = id
	s.lastRef = confirmationRef
	if s.err != nil {
		return nil, s.err
	}
	return &domain.WithdrawalRequest{ID: id, Status: domain.WithdrawalStatusCompleted}, nil
}

func (s *stubCompleter) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	if s.withdrawal == nil {
		return nil, domain.ErrWithdrawalNotFound
	}
	return s.withdrawal, nil
}

type webhookFixture struct {
	uc        *usecase.WebhookUseCase
	ledger    *stubLedger
	completer *stubCompleter
	logRepo   *mocks.MockWebhookLogRepository
	guard     *mocks.MockDedupeGuard
	adapter   *mocks.MockProviderAdapter
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	f := &webhookFixture{
		ledger:    &stubLedger{},
		completer: &stubCompleter{},
		logRepo:   mocks.NewMockWebhookLogRepository(),
		guard:     mocks.NewMockDedupeGuard(),
		adapter:   &mocks.MockProviderAdapter{ProviderName: "cpalead"},
	}

	f.uc = usecase.NewWebhookUseCase(
		[]usecase.ProviderAdapter{f.adapter},
		f.ledger,
		f.completer,
		f.logRepo,
		mocks.NewMockIDGenerator(),
	).WithDedupeGuard(f.guard).WithRetrier(mocks.NewMockRetrier())

	return f
}

func earningEvent(externalID string) *domain.IncomingEvent {
	return &domain.IncomingEvent{
		Provider:   "cpalead",
		ExternalID: externalID,
		UserID:     "user-1",
		Kind:       domain.EventKindEarning,
		EventType:  "offer_completed",
		Amount:     decimal.RequireFromString("2.50"),
		Currency:   "USD",
		OfferName:  "survey",
	}
}

// normalizeTo makes the fixture adapter return the given event for any body.
func (f *webhookFixture) normalizeTo(event *domain.IncomingEvent) {
	f.adapter.NormalizeFunc = func(body []byte, header http.Header) (*domain.IncomingEvent, error) {
		return event, nil
	}
}

func TestWebhookUseCase_ProcessEarning(t *testing.T) {
	f := newWebhookFixture(t)
	f.normalizeTo(earningEvent("tx-1"))

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{"txn":"tx-1"}`), nil)

	if result.Outcome != usecase.OutcomeProcessed {
		t.Fatalf("expected processed, got %s (%v)", result.Outcome, result.Err)
	}
	if f.ledger.earnings != 1 {
		t.Errorf("expected 1 earning recorded, got %d", f.ledger.earnings)
	}

	records := f.logRepo.Records()
	if len(records) != 1 {
		t.Fatalf("expected one log row, got %d", len(records))
	}

	rec := records[0]
	if rec.Status != domain.WebhookStatusProcessed {
		t.Errorf("expected row finalized to processed, got %s", rec.Status)
	}
	if rec.TransactionRef != "tx-1" || rec.UserRef != "user-1" {
		t.Errorf("expected normalized refs on the row, got %+v", rec)
	}
	if result.LogID != rec.ID {
		t.Errorf("result must carry the log row id")
	}
}

func TestWebhookUseCase_UnknownProvider(t *testing.T) {
	f := newWebhookFixture(t)

	result := f.uc.Process(context.Background(), "nobody", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeRejected || !errors.Is(result.Err, domain.ErrUnknownProvider) {
		t.Fatalf("expected rejected/ErrUnknownProvider, got %s (%v)", result.Outcome, result.Err)
	}
	if len(f.logRepo.Records()) != 0 {
		t.Error("unknown provider must not create a log row")
	}
}

func TestWebhookUseCase_NormalizeFailure(t *testing.T) {
	f := newWebhookFixture(t)
	f.adapter.NormalizeFunc = func(body []byte, header http.Header) (*domain.IncomingEvent, error) {
		return nil, domain.ErrBadSignature
	}

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeRejected || !errors.Is(result.Err, domain.ErrBadSignature) {
		t.Fatalf("expected rejected/ErrBadSignature, got %s (%v)", result.Outcome, result.Err)
	}
	if f.ledger.earnings+f.ledger.sales+f.ledger.reversals != 0 {
		t.Error("normalize failure must not touch the ledger")
	}

	records := f.logRepo.Records()
	if len(records) != 1 || records[0].Status != domain.WebhookStatusError {
		t.Fatalf("expected one error log row, got %+v", records)
	}
	if records[0].ErrorMessage == "" {
		t.Error("expected error message on the log row")
	}
}

func TestWebhookUseCase_DuplicateRef(t *testing.T) {
	f := newWebhookFixture(t)
	f.normalizeTo(earningEvent("tx-1"))
	f.ledger.err = domain.ErrDuplicateExternalRef

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s (%v)", result.Outcome, result.Err)
	}

	// The event was applied once already; the guard entry stays so the fast
	// path keeps absorbing redeliveries.
	if !f.guard.Held("cpalead:tx-1:earning") {
		t.Error("guard entry must survive a storage-level duplicate")
	}

	records := f.logRepo.Records()
	if len(records) != 1 || records[0].Status != domain.WebhookStatusDuplicate {
		t.Fatalf("expected a duplicate log row, got %+v", records)
	}
}

func TestWebhookUseCase_GuardFastPath(t *testing.T) {
	f := newWebhookFixture(t)
	f.normalizeTo(earningEvent("tx-1"))
	ctx := context.Background()

	first := f.uc.Process(ctx, "cpalead", []byte(`{}`), nil)
	second := f.uc.Process(ctx, "cpalead", []byte(`{}`), nil)

	if first.Outcome != usecase.OutcomeProcessed {
		t.Fatalf("first delivery: expected processed, got %s", first.Outcome)
	}
	if second.Outcome != usecase.OutcomeDuplicate {
		t.Fatalf("second delivery: expected duplicate, got %s", second.Outcome)
	}
	if f.ledger.earnings != 1 {
		t.Errorf("fast path must not reach the ledger, got %d calls", f.ledger.earnings)
	}
}

func TestWebhookUseCase_GuardErrorDegradesToStorage(t *testing.T) {
	f := newWebhookFixture(t)
	f.normalizeTo(earningEvent("tx-1"))
	f.guard.AcquireFunc = func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeProcessed {
		t.Fatalf("expected processed when the guard is unavailable, got %s (%v)", result.Outcome, result.Err)
	}
	if f.ledger.earnings != 1 {
		t.Errorf("expected the event to fall through to storage, got %d ledger calls", f.ledger.earnings)
	}
}

func TestWebhookUseCase_InvariantViolationRejects(t *testing.T) {
	f := newWebhookFixture(t)
	event := earningEvent("tx-1")
	event.Kind = domain.EventKindReversal
	event.EventType = "chargeback"
	f.normalizeTo(event)
	f.ledger.err = domain.ErrOverReversal

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeRejected || !errors.Is(result.Err, domain.ErrOverReversal) {
		t.Fatalf("expected rejected/ErrOverReversal, got %s (%v)", result.Outcome, result.Err)
	}

	// A rejected event must not poison the fast path for a corrected retry.
	if f.guard.Held("cpalead:tx-1:reversal") {
		t.Error("guard entry must be released on rejection")
	}
}

func TestWebhookUseCase_TransientFailure(t *testing.T) {
	f := newWebhookFixture(t)
	f.normalizeTo(earningEvent("tx-1"))
	f.ledger.err = errors.New("connection reset")

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeFailed {
		t.Fatalf("expected failed, got %s", result.Outcome)
	}
	if f.guard.Held("cpalead:tx-1:earning") {
		t.Error("guard entry must be released so the provider retry can land")
	}

	records := f.logRepo.Records()
	if len(records) != 1 || records[0].Status != domain.WebhookStatusError {
		t.Fatalf("expected an error log row, got %+v", records)
	}
}

func TestWebhookUseCase_ReversalRedelivery(t *testing.T) {
	f := newWebhookFixture(t)
	event := earningEvent("tx-1")
	event.Kind = domain.EventKindReversal
	event.EventType = "chargeback"
	f.normalizeTo(event)

	f.logRepo.HasProcessedFunc = func(ctx context.Context, provider, transactionRef, eventType string) (bool, error) {
		return provider == "cpalead" && transactionRef == "tx-1" && eventType == "chargeback", nil
	}

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s (%v)", result.Outcome, result.Err)
	}
	if f.ledger.reversals != 0 {
		t.Error("redelivered reversal must not reach the ledger")
	}
}

func TestWebhookUseCase_PaymentConfirmation(t *testing.T) {
	t.Run("completes the referenced withdrawal", func(t *testing.T) {
		f := newWebhookFixture(t)
		event := earningEvent("batch-9")
		event.Kind = domain.EventKindPaymentConfirmation
		event.EventType = "payment_sent"
		event.PayoutRef = "wd-1"
		f.normalizeTo(event)

		result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

		if result.Outcome != usecase.OutcomeProcessed {
			t.Fatalf("expected processed, got %s (%v)", result.Outcome, result.Err)
		}
		if f.completer.calls != 1 || f.completer.lastID != "wd-1" || f.completer.lastRef != "batch-9" {
			t.Errorf("expected Complete(wd-1, batch-9), got %+v", f.completer)
		}
	})

	t.Run("no payout reference is acknowledged without effect", func(t *testing.T) {
		f := newWebhookFixture(t)
		event := earningEvent("premium-1")
		event.Kind = domain.EventKindPaymentConfirmation
		event.EventType = "premium_activated"
		f.normalizeTo(event)

		result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

		if result.Outcome != usecase.OutcomeProcessed {
			t.Fatalf("expected processed, got %s (%v)", result.Outcome, result.Err)
		}
		if f.completer.calls != 0 {
			t.Error("confirmation without payout ref must not touch withdrawals")
		}
	})

	t.Run("redelivered confirmation is a duplicate", func(t *testing.T) {
		f := newWebhookFixture(t)
		event := earningEvent("batch-9")
		event.Kind = domain.EventKindPaymentConfirmation
		event.EventType = "payment_sent"
		event.PayoutRef = "wd-1"
		f.normalizeTo(event)
		f.completer.err = domain.ErrInvalidStatusTransition
		f.completer.withdrawal = &domain.WithdrawalRequest{
			ID:              "wd-1",
			Status:          domain.WithdrawalStatusCompleted,
			ConfirmationRef: "batch-9",
		}

		result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

		if result.Outcome != usecase.OutcomeDuplicate {
			t.Fatalf("expected duplicate, got %s (%v)", result.Outcome, result.Err)
		}
	})

	t.Run("confirmation for a pending withdrawal is an error", func(t *testing.T) {
		f := newWebhookFixture(t)
		event := earningEvent("batch-9")
		event.Kind = domain.EventKindPaymentConfirmation
		event.EventType = "payment_sent"
		event.PayoutRef = "wd-1"
		f.normalizeTo(event)
		f.completer.err = domain.ErrInvalidStatusTransition
		f.completer.withdrawal = &domain.WithdrawalRequest{
			ID:     "wd-1",
			Status: domain.WithdrawalStatusPending,
		}

		result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

		if result.Outcome != usecase.OutcomeRejected || !errors.Is(result.Err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected rejected/ErrInvalidStatusTransition, got %s (%v)", result.Outcome, result.Err)
		}

		records := f.logRepo.Records()
		if len(records) != 1 || records[0].Status != domain.WebhookStatusError {
			t.Fatalf("expected an error log row, got %+v", records)
		}
	})

	t.Run("confirmation for a different batch is an error", func(t *testing.T) {
		f := newWebhookFixture(t)
		event := earningEvent("batch-10")
		event.Kind = domain.EventKindPaymentConfirmation
		event.EventType = "payment_sent"
		event.PayoutRef = "wd-1"
		f.normalizeTo(event)
		f.completer.err = domain.ErrInvalidStatusTransition
		f.completer.withdrawal = &domain.WithdrawalRequest{
			ID:              "wd-1",
			Status:          domain.WithdrawalStatusCompleted,
			ConfirmationRef: "batch-9",
		}

		result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

		if result.Outcome != usecase.OutcomeRejected || !errors.Is(result.Err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected rejected/ErrInvalidStatusTransition, got %s (%v)", result.Outcome, result.Err)
		}
	})
}

func TestWebhookUseCase_UnknownEventKind(t *testing.T) {
	f := newWebhookFixture(t)
	event := earningEvent("tx-1")
	event.Kind = "mystery"
	f.normalizeTo(event)

	result := f.uc.Process(context.Background(), "cpalead", []byte(`{}`), nil)

	if result.Outcome != usecase.OutcomeRejected || !errors.Is(result.Err, domain.ErrMalformedPayload) {
		t.Fatalf("expected rejected/ErrMalformedPayload, got %s (%v)", result.Outcome, result.Err)
	}
}
