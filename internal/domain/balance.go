package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the per-user balance cache derived from the entry log. It is
// recomputed transactionally with every entry insert; the entry log remains
// the source of truth.
type Balance struct {
	UserID           string
	Available        decimal.Decimal
	LifetimeEarnings decimal.Decimal
	Version          int64
	UpdatedAt        time.Time
}

// ValidateDebit checks whether the balance can absorb a debit of amount.
func (b *Balance) ValidateDebit(amount decimal.Decimal) error {
	if b.Available.Sub(amount).IsNegative() {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyEntry returns the balance state after applying an entry amount.
// Earnings additionally grow lifetime earnings, which drive tier resolution.
func (b *Balance) ApplyEntry(e *LedgerEntry) (available, lifetime decimal.Decimal) {
	available = b.Available.Add(e.Amount)
	lifetime = b.LifetimeEarnings

	if e.Kind == EntryKindEarning {
		lifetime = lifetime.Add(e.Amount)
	}

	return available, lifetime
}
