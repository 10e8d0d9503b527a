package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
	"github.com/leadpay/earnings/internal/usecase/mocks"
)

func seedLogRecords(t *testing.T, repo *mocks.MockWebhookLogRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	records := []*domain.WebhookLogRecord{
		{ID: "w1", Provider: "cpalead", EventType: "offer_completed", Status: domain.WebhookStatusProcessed, Amount: decimal.RequireFromString("2.50"), CreatedAt: base},
		{ID: "w2", Provider: "cpalead", EventType: "offer_completed", Status: domain.WebhookStatusDuplicate, CreatedAt: base.Add(time.Minute)},
		{ID: "w3", Provider: "linkshare", EventType: "sale", Status: domain.WebhookStatusProcessed, Amount: decimal.RequireFromString("6.00"), CreatedAt: base.Add(2 * time.Minute)},
		{ID: "w4", Provider: "linkshare", EventType: "sale", Status: domain.WebhookStatusError, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, rec := range records {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("failed to seed log record: %v", err)
		}
	}
}

func TestMonitorUseCase_Stats(t *testing.T) {
	logRepo := mocks.NewMockWebhookLogRepository()
	seedLogRecords(t, logRepo)
	uc := usecase.NewMonitorUseCase(logRepo)

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byProvider := make(map[string]*domain.ProviderStats, len(stats))
	for _, s := range stats {
		byProvider[s.Provider] = s
	}

	cpalead, ok := byProvider["cpalead"]
	if !ok {
		t.Fatal("expected stats for cpalead")
	}
	if cpalead.Total != 2 || cpalead.Processed != 1 || cpalead.Duplicates != 1 {
		t.Errorf("unexpected cpalead stats: %+v", cpalead)
	}

	linkshare, ok := byProvider["linkshare"]
	if !ok {
		t.Fatal("expected stats for linkshare")
	}
	if linkshare.Errors != 1 {
		t.Errorf("expected 1 linkshare error, got %d", linkshare.Errors)
	}
}

func TestMonitorUseCase_Recent(t *testing.T) {
	logRepo := mocks.NewMockWebhookLogRepository()
	seedLogRecords(t, logRepo)
	uc := usecase.NewMonitorUseCase(logRepo)
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		records, err := uc.Recent(ctx, usecase.RecentInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected 4 records, got %d", len(records))
		}
		if records[0].ID != "w4" {
			t.Errorf("expected newest record first, got %s", records[0].ID)
		}
	})

	t.Run("provider filter", func(t *testing.T) {
		records, err := uc.Recent(ctx, usecase.RecentInput{Provider: "cpalead"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 cpalead records, got %d", len(records))
		}
		for _, rec := range records {
			if rec.Provider != "cpalead" {
				t.Errorf("unexpected provider %s", rec.Provider)
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		records, err := uc.Recent(ctx, usecase.RecentInput{Limit: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
	})
}
