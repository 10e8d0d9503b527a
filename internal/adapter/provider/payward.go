package provider

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
)

// Payward event types.
const (
	PaywardEventPaymentSent       = "payment_sent"
	PaywardEventPremiumActivation = "premium_activation"
)

// PaywardAdapter normalizes payment processor callbacks: outbound payment
// confirmations that complete withdrawals, and premium activations that are
// logged with no ledger effect.
type PaywardAdapter struct {
	secret string
}

// NewPaywardAdapter creates a new PaywardAdapter.
func NewPaywardAdapter(secret string) *PaywardAdapter {
	return &PaywardAdapter{secret: secret}
}

// Provider returns the provider id.
func (a *PaywardAdapter) Provider() string {
	return "payward"
}

type paywardPayload struct {
	EventType string `json:"event_type"`
	PaymentID string `json:"payment_id"`
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// Normalize verifies the body signature and maps the callback to a payment
// confirmation event. Premium activations carry no payout reference.
func (a *PaywardAdapter) Normalize(body []byte, header http.Header) (*domain.IncomingEvent, error) {
	if !verifyHMAC(a.secret, body, header.Get(SignatureHeader)) {
		return nil, domain.ErrBadSignature
	}

	var p paywardPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, domain.ErrMalformedPayload
	}

	if p.PaymentID == "" {
		return nil, domain.ErrMalformedPayload
	}

	payoutRef := ""

	switch p.EventType {
	case PaywardEventPaymentSent:
		if p.Reference == "" {
			return nil, domain.ErrMalformedPayload
		}
		payoutRef = p.Reference
	case PaywardEventPremiumActivation:
		// Acknowledged and logged only.
	default:
		return nil, domain.ErrMalformedPayload
	}

	amount := decimal.Zero
	if p.Amount != "" {
		var err error
		if amount, err = decimal.NewFromString(p.Amount); err != nil {
			return nil, domain.ErrMalformedPayload
		}
	}

	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}

	return &domain.IncomingEvent{
		Provider:   a.Provider(),
		ExternalID: p.PaymentID,
		UserID:     p.UserID,
		Kind:       domain.EventKindPaymentConfirmation,
		EventType:  p.EventType,
		Amount:     amount,
		Currency:   strings.ToUpper(currency),
		PayoutRef:  payoutRef,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
