package domain

import "time"

// Event types
const (
	EventTypeEarningRecorded         = "earning.recorded"
	EventTypeEarningReversed         = "earning.reversed"
	EventTypeWithdrawalRequested     = "withdrawal.requested"
	EventTypeWithdrawalStatusChanged = "withdrawal.status_changed"
)

// Aggregate types
const (
	AggregateTypeLedgerEntry = "ledger_entry"
	AggregateTypeWithdrawal  = "withdrawal"
)

// OutboxEvent represents a domain event staged for publication. It is
// written in the same transaction as the ledger mutation it describes.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EarningRecordedEvent payload
type EarningRecordedEvent struct {
	EntryID    string `json:"entry_id"`
	UserID     string `json:"user_id"`
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

// EarningReversedEvent payload
type EarningReversedEvent struct {
	ReversalEntryID string `json:"reversal_entry_id"`
	OriginalEntryID string `json:"original_entry_id"`
	UserID          string `json:"user_id"`
	Amount          string `json:"amount"`
}

// WithdrawalRequestedEvent payload
type WithdrawalRequestedEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Amount       string `json:"amount"`
	Method       string `json:"method"`
}

// WithdrawalStatusChangedEvent payload
type WithdrawalStatusChangedEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	From         string `json:"from"`
	To           string `json:"to"`
}
