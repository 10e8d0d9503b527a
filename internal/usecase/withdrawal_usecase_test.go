package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
	"github.com/leadpay/earnings/internal/usecase/mocks"
)

type withdrawalFixture struct {
	uc             *usecase.WithdrawalUseCase
	withdrawalRepo *mocks.MockWithdrawalRepository
	balanceRepo    *mocks.MockBalanceRepository
	entryRepo      *mocks.MockEntryRepository
	outboxRepo     *mocks.MockOutboxRepository
	cache          *mocks.MockCache
}

func newWithdrawalFixture(t *testing.T, minAmount string) *withdrawalFixture {
	t.Helper()

	f := &withdrawalFixture{
		withdrawalRepo: mocks.NewMockWithdrawalRepository(),
		balanceRepo:    mocks.NewMockBalanceRepository(),
		entryRepo:      mocks.NewMockEntryRepository(),
		outboxRepo:     mocks.NewMockOutboxRepository(),
		cache:          mocks.NewMockCache(),
	}

	f.uc = usecase.NewWithdrawalUseCase(
		mocks.NewMockTransactionManager(),
		f.withdrawalRepo,
		f.balanceRepo,
		f.entryRepo,
		f.outboxRepo,
		mocks.NewMockIDGenerator(),
		decimal.RequireFromString(minAmount),
	).WithCache(f.cache)

	return f
}

func requestInput(amount string) usecase.RequestInput {
	return usecase.RequestInput{
		UserID:      "user-1",
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		Method:      domain.MethodPayPal,
		Destination: "user@example.com",
	}
}

func TestWithdrawalUseCase_Request(t *testing.T) {
	f := newWithdrawalFixture(t, "3.00")
	ctx := context.Background()

	f.balanceRepo.Seed(&domain.Balance{
		UserID:           "user-1",
		Available:        decimal.NewFromInt(50),
		LifetimeEarnings: decimal.NewFromInt(50),
		Version:          1,
	})

	w, err := f.uc.Request(ctx, requestInput("20.00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Status != domain.WithdrawalStatusPending {
		t.Errorf("expected pending, got %s", w.Status)
	}

	balance, _ := f.balanceRepo.Get(ctx, "user-1")
	if !balance.Available.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected available 30 after hold, got %s", balance.Available)
	}
	if !balance.LifetimeEarnings.Equal(decimal.NewFromInt(50)) {
		t.Errorf("holds must not change lifetime earnings, got %s", balance.LifetimeEarnings)
	}

	entries := f.entryRepo.Entries()
	if len(entries) != 1 || entries[0].Kind != domain.EntryKindWithdrawalDebit {
		t.Fatalf("expected one withdrawal_debit entry, got %+v", entries)
	}
	if entries[0].Amount.String() != "-20" {
		t.Errorf("expected debit amount -20, got %s", entries[0].Amount)
	}
	if w.DebitEntryID != entries[0].ID {
		t.Errorf("withdrawal must reference the debit entry")
	}

	events := f.outboxRepo.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeWithdrawalRequested {
		t.Errorf("expected withdrawal.requested outbox event, got %+v", events)
	}
}

func TestWithdrawalUseCase_RequestRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.RequestInput
		seed    string
		wantErr error
	}{
		{"below minimum", requestInput("2.99"), "100", domain.ErrAmountBelowMinimum},
		{"zero amount", requestInput("0"), "100", domain.ErrInvalidAmount},
		{"insufficient balance", requestInput("20.00"), "19.99", domain.ErrInsufficientBalance},
		{"bad destination", func() usecase.RequestInput {
			in := requestInput("10.00")
			in.Destination = "not-an-email"
			return in
		}(), "100", domain.ErrInvalidDestination},
		{"unsupported method", func() usecase.RequestInput {
			in := requestInput("10.00")
			in.Method = "wire"
			return in
		}(), "100", domain.ErrUnsupportedMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWithdrawalFixture(t, "3.00")
			f.balanceRepo.Seed(&domain.Balance{
				UserID:    "user-1",
				Available: decimal.RequireFromString(tt.seed),
			})

			_, err := f.uc.Request(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if len(f.entryRepo.Entries()) != 0 {
				t.Error("rejected request must not create ledger entries")
			}
		})
	}
}

func TestWithdrawalUseCase_Lifecycle(t *testing.T) {
	f := newWithdrawalFixture(t, "3.00")
	ctx := context.Background()

	f.balanceRepo.Seed(&domain.Balance{
		UserID:    "user-1",
		Available: decimal.NewFromInt(50),
	})

	w, err := f.uc.Request(ctx, requestInput("20.00"))
	if err != nil {
		t.Fatalf("failed to create withdrawal: %v", err)
	}

	if _, err := f.uc.MarkProcessing(ctx, w.ID); err != nil {
		t.Fatalf("failed to mark processing: %v", err)
	}

	completed, err := f.uc.Complete(ctx, w.ID, "paypal-batch-7")
	if err != nil {
		t.Fatalf("failed to complete: %v", err)
	}
	if completed.Status != domain.WithdrawalStatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.ConfirmationRef != "paypal-batch-7" {
		t.Errorf("expected confirmation ref to persist, got %q", completed.ConfirmationRef)
	}
	if completed.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}

	// Completion pays out the held funds; the balance does not change again.
	balance, _ := f.balanceRepo.Get(ctx, "user-1")
	if !balance.Available.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected available 30 after completion, got %s", balance.Available)
	}
}

func TestWithdrawalUseCase_RejectReleasesHold(t *testing.T) {
	f := newWithdrawalFixture(t, "3.00")
	ctx := context.Background()

	f.balanceRepo.Seed(&domain.Balance{
		UserID:    "user-1",
		Available: decimal.NewFromInt(50),
	})

	w, err := f.uc.Request(ctx, requestInput("20.00"))
	if err != nil {
		t.Fatalf("failed to create withdrawal: %v", err)
	}

	rejected, err := f.uc.Reject(ctx, w.ID, "account under review")
	if err != nil {
		t.Fatalf("failed to reject: %v", err)
	}
	if rejected.RejectReason != "account under review" {
		t.Errorf("expected reject reason to persist, got %q", rejected.RejectReason)
	}

	balance, _ := f.balanceRepo.Get(ctx, "user-1")
	if !balance.Available.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected hold released back to 50, got %s", balance.Available)
	}

	var release *domain.LedgerEntry
	for _, e := range f.entryRepo.Entries() {
		if e.Kind == domain.EntryKindWithdrawalRelease {
			release = e
		}
	}
	if release == nil {
		t.Fatal("expected a withdrawal_release entry")
	}
	if release.RelatedEntryID == nil || *release.RelatedEntryID != w.DebitEntryID {
		t.Error("release entry must reference the original debit")
	}
}

func TestWithdrawalUseCase_InvalidTransitions(t *testing.T) {
	f := newWithdrawalFixture(t, "3.00")
	ctx := context.Background()

	f.balanceRepo.Seed(&domain.Balance{
		UserID:    "user-1",
		Available: decimal.NewFromInt(50),
	})

	w, err := f.uc.Request(ctx, requestInput("20.00"))
	if err != nil {
		t.Fatalf("failed to create withdrawal: %v", err)
	}

	// pending cannot complete directly.
	if _, err := f.uc.Complete(ctx, w.ID, "ref"); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}

	if _, err := f.uc.Reject(ctx, w.ID, "gone"); err != nil {
		t.Fatalf("pending to rejected should be allowed: %v", err)
	}

	// Terminal states accept nothing.
	if _, err := f.uc.MarkProcessing(ctx, w.ID); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition from rejected, got %v", err)
	}

	balance, _ := f.balanceRepo.Get(ctx, "user-1")
	if !balance.Available.Equal(decimal.NewFromInt(50)) {
		t.Errorf("failed transitions must not move funds, got %s", balance.Available)
	}
}

func TestWithdrawalUseCase_UnknownID(t *testing.T) {
	f := newWithdrawalFixture(t, "3.00")

	_, err := f.uc.MarkProcessing(context.Background(), "missing")
	if !errors.Is(err, domain.ErrWithdrawalNotFound) {
		t.Fatalf("expected ErrWithdrawalNotFound, got %v", err)
	}
}
