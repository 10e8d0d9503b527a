package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
	"github.com/leadpay/earnings/internal/usecase/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func seedEntries(t *testing.T, repo *mocks.MockEntryRepository, userID string, amounts ...string) {
	t.Helper()
	ctx := context.Background()
	for i, a := range amounts {
		entry := &domain.LedgerEntry{
			ID:       userID + "-e" + string(rune('a'+i)),
			UserID:   userID,
			Kind:     domain.EntryKindEarning,
			Amount:   decimal.RequireFromString(a),
			Currency: "USD",
		}
		if entry.Amount.IsNegative() {
			entry.Kind = domain.EntryKindWithdrawalDebit
		}
		if err := repo.Create(ctx, nil, entry); err != nil {
			t.Fatalf("failed to seed entry: %v", err)
		}
	}
}

func TestReconciliationUseCase_ReconcileUser(t *testing.T) {
	balanceRepo := mocks.NewMockBalanceRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := usecase.NewReconciliationUseCase(balanceRepo, entryRepo, discardLogger())
	ctx := context.Background()

	seedEntries(t, entryRepo, "user-1", "10.00", "2.50", "-4.00")
	balanceRepo.Seed(&domain.Balance{
		UserID:    "user-1",
		Available: decimal.RequireFromString("8.50"),
	})

	result, err := uc.ReconcileUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsReconciled {
		t.Errorf("expected user-1 to reconcile, diff %s", result.Difference)
	}
	if result.CalculatedBalance.String() != "8.5" {
		t.Errorf("expected calculated 8.5, got %s", result.CalculatedBalance)
	}
}

func TestReconciliationUseCase_DetectsDrift(t *testing.T) {
	balanceRepo := mocks.NewMockBalanceRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := usecase.NewReconciliationUseCase(balanceRepo, entryRepo, discardLogger())

	seedEntries(t, entryRepo, "user-1", "10.00")
	balanceRepo.Seed(&domain.Balance{
		UserID:    "user-1",
		Available: decimal.RequireFromString("12.00"),
	})

	result, err := uc.ReconcileUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsReconciled {
		t.Fatal("expected drift to be detected")
	}
	if result.Difference.String() != "2" {
		t.Errorf("expected difference 2, got %s", result.Difference)
	}

	// Drift is reported, not repaired.
	balance, _ := balanceRepo.Get(context.Background(), "user-1")
	if balance.Available.String() != "12" {
		t.Errorf("reconciliation must not rewrite balances, got %s", balance.Available)
	}
}

func TestReconciliationUseCase_ConcurrentMutationIsNotDrift(t *testing.T) {
	balanceRepo := mocks.NewMockBalanceRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := usecase.NewReconciliationUseCase(balanceRepo, entryRepo, discardLogger())

	// An earning commits between the balance read and the entry sum: the
	// first measurement sees the old balance row next to the new entry total.
	// The re-measurement sees a consistent pair and must not alert.
	seedEntries(t, entryRepo, "user-1", "10.00", "2.00")
	reads := 0
	balanceRepo.GetFunc = func(ctx context.Context, userID string) (*domain.Balance, error) {
		reads++
		if reads == 1 {
			return &domain.Balance{UserID: userID, Available: decimal.RequireFromString("10.00")}, nil
		}
		return &domain.Balance{UserID: userID, Available: decimal.RequireFromString("12.00")}, nil
	}

	result, err := uc.ReconcileUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reads != 2 {
		t.Fatalf("expected a re-measurement before alerting, got %d reads", reads)
	}
	if !result.IsReconciled {
		t.Errorf("expected in-flight mutation to reconcile on re-measurement, diff %s", result.Difference)
	}
	if result.RecordedBalance.String() != "12" {
		t.Errorf("expected the second measurement to be reported, got %s", result.RecordedBalance)
	}
}

func TestReconciliationUseCase_UnknownUser(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(mocks.NewMockBalanceRepository(), mocks.NewMockEntryRepository(), discardLogger())

	_, err := uc.ReconcileUser(context.Background(), "missing")
	if !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("expected ErrBalanceNotFound, got %v", err)
	}
}

func TestReconciliationUseCase_ReconcileAll(t *testing.T) {
	balanceRepo := mocks.NewMockBalanceRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := usecase.NewReconciliationUseCase(balanceRepo, entryRepo, discardLogger())

	seedEntries(t, entryRepo, "user-1", "5.00")
	seedEntries(t, entryRepo, "user-2", "7.00")
	balanceRepo.Seed(&domain.Balance{UserID: "user-1", Available: decimal.RequireFromString("5.00")})
	balanceRepo.Seed(&domain.Balance{UserID: "user-2", Available: decimal.RequireFromString("9.00")})

	results, err := uc.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	drifted := 0
	for _, r := range results {
		if !r.IsReconciled {
			drifted++
			if r.UserID != "user-2" {
				t.Errorf("unexpected drifted user %s", r.UserID)
			}
		}
	}
	if drifted != 1 {
		t.Errorf("expected exactly one drifted user, got %d", drifted)
	}
}
