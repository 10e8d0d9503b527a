package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

// Payout methods.
const (
	MethodPayPal = "paypal"
)

// WithdrawalRequest holds a user's payout request. Amount, method and
// destination are immutable after creation; only the status moves, and only
// forward.
type WithdrawalRequest struct {
	CreatedAt       time.Time
	ProcessedAt     *time.Time
	ID              string
	UserID          string
	Amount          decimal.Decimal
	Currency        string
	Method          string
	Destination     string
	Status          WithdrawalStatus
	RejectReason    string
	ConfirmationRef string
	DebitEntryID    string
}

// IsTerminal reports whether no further transitions are allowed.
func (w *WithdrawalRequest) IsTerminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusRejected
}

// CanTransition reports whether the state machine allows moving to target.
// pending -> processing -> {completed | rejected}; rejection is also allowed
// straight from pending. No transition re-opens a terminal state.
func (w *WithdrawalRequest) CanTransition(target WithdrawalStatus) bool {
	switch w.Status {
	case WithdrawalStatusPending:
		return target == WithdrawalStatusProcessing || target == WithdrawalStatusRejected
	case WithdrawalStatusProcessing:
		return target == WithdrawalStatusCompleted || target == WithdrawalStatusRejected
	default:
		return false
	}
}

// ValidateDestination checks the destination format for the payout method.
func ValidateDestination(method, destination string) error {
	switch method {
	case MethodPayPal:
		if err := ValidateEmail(destination); err != nil {
			return ErrInvalidDestination
		}
		return nil
	default:
		return ErrUnsupportedMethod
	}
}

// WithdrawalSummary is the running summary returned with withdrawal history.
type WithdrawalSummary struct {
	TotalRequested  decimal.Decimal
	TotalApproved   decimal.Decimal
	PendingCount    int64
	ProcessingCount int64
	CompletedCount  int64
	RejectedCount   int64
}
