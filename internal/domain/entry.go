package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryKindEarning           EntryKind = "earning"
	EntryKindReversal          EntryKind = "reversal"
	EntryKindWithdrawalDebit   EntryKind = "withdrawal_debit"
	EntryKindWithdrawalRelease EntryKind = "withdrawal_release"
)

// ExternalRef identifies the provider-side transaction an entry originated
// from. It doubles as the idempotency key for webhook-driven entries.
type ExternalRef struct {
	Provider   string
	ExternalID string
}

// LedgerEntry is an immutable record of a balance-affecting event. Entries
// are never updated or deleted; corrections are new offsetting entries.
type LedgerEntry struct {
	CreatedAt      time.Time
	ID             string
	UserID         string
	Kind           EntryKind
	Amount         decimal.Decimal
	Currency       string
	ExternalRef    *ExternalRef
	RelatedEntryID *string
	Description    string
}

// RewardsSummary accompanies a rewards history page. It is computed from the
// same snapshot as the entries it summarizes.
type RewardsSummary struct {
	TotalEarnings  decimal.Decimal
	TotalReversals decimal.Decimal
	ApprovedCount  int64
	ReversedCount  int64
}

// Validate checks entry invariants before insertion.
func (e *LedgerEntry) Validate() error {
	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}

	switch e.Kind {
	case EntryKindEarning, EntryKindWithdrawalRelease:
		if e.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	case EntryKindReversal, EntryKindWithdrawalDebit:
		if e.Amount.IsPositive() {
			return ErrInvalidAmount
		}
	default:
		return ErrInvalidEntryKind
	}

	return nil
}
