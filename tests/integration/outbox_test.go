package integration

import (
	"context"
	"testing"
	"time"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/tests/testutil"
)

func TestOutboxFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledgerUC := testDB.NewLedgerUseCase(t)

	testDB.RecordEarning(ctx, ledgerUC, "user-1", "tx-1", "2.50")
	testDB.RecordEarning(ctx, ledgerUC, "user-1", "tx-2", "3.00")

	t.Run("ledger writes enqueue events transactionally", func(t *testing.T) {
		events, err := testDB.Outbox.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(events) != 2 {
			t.Fatalf("expected 2 unpublished events, got %d", len(events))
		}
		for _, e := range events {
			if e.EventType != domain.EventTypeEarningRecorded {
				t.Errorf("unexpected event type %s", e.EventType)
			}
			if e.AggregateType != domain.AggregateTypeLedgerEntry {
				t.Errorf("unexpected aggregate type %s", e.AggregateType)
			}
		}
	})

	t.Run("published events leave the queue", func(t *testing.T) {
		events, err := testDB.Outbox.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		now := time.Now().UTC()
		if err := testDB.Outbox.MarkPublished(ctx, events[0].ID, now); err != nil {
			t.Fatalf("failed to mark published: %v", err)
		}

		remaining, err := testDB.Outbox.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(remaining) != 1 {
			t.Fatalf("expected 1 unpublished event, got %d", len(remaining))
		}
		if remaining[0].ID == events[0].ID {
			t.Error("published event still listed as unpublished")
		}
	})

	t.Run("retention sweep deletes old published events", func(t *testing.T) {
		deleted, err := testDB.Outbox.DeletePublished(ctx, time.Now().UTC().Add(time.Minute))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deleted != 1 {
			t.Fatalf("expected 1 deleted event, got %d", deleted)
		}

		// Unpublished events are never swept.
		remaining, err := testDB.Outbox.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(remaining) != 1 {
			t.Fatalf("sweep must not touch unpublished events, got %d", len(remaining))
		}
	})
}
