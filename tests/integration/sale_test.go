package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
	"github.com/leadpay/earnings/tests/testutil"
)

func TestSaleCommission(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledgerUC := testDB.NewLedgerUseCase(t)

	sale := func(externalID, saleAmount string) *domain.LedgerEntry {
		t.Helper()
		entry, err := ledgerUC.RecordSale(ctx, usecase.RecordSaleInput{
			UserID:     "user-1",
			SaleAmount: decimal.RequireFromString(saleAmount),
			Currency:   "USD",
			Ref:        domain.ExternalRef{Provider: "linkshare", ExternalID: externalID},
		})
		if err != nil {
			t.Fatalf("failed to record sale: %v", err)
		}
		return entry
	}

	// Lifetime 0: base tier 50%.
	first := sale("s-1", "30.00")
	if first.Amount.String() != "15" {
		t.Fatalf("expected 50%% commission of 15, got %s", first.Amount)
	}

	// Lifetime is now 15, still under the 20 threshold.
	second := sale("s-2", "10.00")
	if second.Amount.String() != "5" {
		t.Fatalf("expected commission 5 at base tier, got %s", second.Amount)
	}

	// Lifetime 20 reaches the second tier; the new rate applies from the
	// next sale on.
	third := sale("s-3", "10.00")
	if third.Amount.String() != "6" {
		t.Fatalf("expected 60%% commission of 6, got %s", third.Amount)
	}

	// Lifetime 26; crossing to the 30 tier happens with this sale's credit
	// but the sale itself is still priced at 60%.
	fourth := sale("s-4", "10.00")
	if fourth.Amount.String() != "6" {
		t.Fatalf("expected commission 6 before crossing, got %s", fourth.Amount)
	}

	// Lifetime 32: top tier.
	fifth := sale("s-5", "10.00")
	if fifth.Amount.String() != "7" {
		t.Fatalf("expected 70%% commission of 7, got %s", fifth.Amount)
	}

	balance := testDB.Balance(ctx, "user-1")
	if balance.Available.String() != "39" {
		t.Errorf("expected available 39, got %s", balance.Available)
	}
	if balance.LifetimeEarnings.String() != "39" {
		t.Errorf("expected lifetime 39, got %s", balance.LifetimeEarnings)
	}
}
