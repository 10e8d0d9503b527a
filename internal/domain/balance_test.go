package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBalanceValidateDebit(t *testing.T) {
	b := &Balance{Available: decimal.RequireFromString("10.00")}

	if err := b.ValidateDebit(decimal.RequireFromString("10.00")); err != nil {
		t.Errorf("debit to exactly zero must be allowed: %v", err)
	}

	if err := b.ValidateDebit(decimal.RequireFromString("10.01")); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestBalanceApplyEntry(t *testing.T) {
	tests := []struct {
		name          string
		kind          EntryKind
		amount        string
		wantAvailable string
		wantLifetime  string
	}{
		{"earning grows both", EntryKindEarning, "2.50", "12.5", "22.5"},
		{"reversal shrinks available only", EntryKindReversal, "-2.50", "7.5", "20"},
		{"debit shrinks available only", EntryKindWithdrawalDebit, "-5", "5", "20"},
		{"release restores available only", EntryKindWithdrawalRelease, "5", "15", "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Balance{
				Available:        decimal.RequireFromString("10.00"),
				LifetimeEarnings: decimal.RequireFromString("20.00"),
			}

			available, lifetime := b.ApplyEntry(&LedgerEntry{
				Kind:   tt.kind,
				Amount: decimal.RequireFromString(tt.amount),
			})

			if available.String() != tt.wantAvailable {
				t.Errorf("available = %s, want %s", available, tt.wantAvailable)
			}
			if lifetime.String() != tt.wantLifetime {
				t.Errorf("lifetime = %s, want %s", lifetime, tt.wantLifetime)
			}
		})
	}
}
