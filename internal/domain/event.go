package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind classifies a normalized incoming webhook event.
type EventKind string

const (
	// EventKindEarning is a pre-priced CPA payout.
	EventKindEarning EventKind = "earning"
	// EventKindSale is a commission-bearing affiliate sale; the credited
	// amount is derived from the sale amount and the user's tier rate.
	EventKindSale EventKind = "sale"
	// EventKindReversal is a chargeback of a previously recorded earning.
	EventKindReversal EventKind = "reversal"
	// EventKindPaymentConfirmation confirms an outbound payment; it carries
	// the withdrawal id in ExternalID and never credits the ledger.
	EventKindPaymentConfirmation EventKind = "payment_confirmation"
)

// IncomingEvent is the canonical form every provider payload is normalized
// into before any persistence happens.
type IncomingEvent struct {
	Provider   string
	ExternalID string
	UserID     string
	Kind       EventKind
	EventType  string
	Amount     decimal.Decimal
	Currency   string
	OfferName  string
	// PayoutRef carries the withdrawal id a payment confirmation refers to.
	PayoutRef  string
	ReceivedAt time.Time
}

// Ref returns the idempotency key for the event.
func (e *IncomingEvent) Ref() ExternalRef {
	return ExternalRef{Provider: e.Provider, ExternalID: e.ExternalID}
}
