package provider

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body for JSON
// providers.
const SignatureHeader = "X-Signature"

// LinkshareAdapter normalizes affiliate network sale notifications. The body
// is JSON signed with HMAC-SHA256; the credited amount is derived later from
// the sale amount and the user's commission tier.
type LinkshareAdapter struct {
	secret string
}

// NewLinkshareAdapter creates a new LinkshareAdapter.
func NewLinkshareAdapter(secret string) *LinkshareAdapter {
	return &LinkshareAdapter{secret: secret}
}

// Provider returns the provider id.
func (a *LinkshareAdapter) Provider() string {
	return "linkshare"
}

type linksharePayload struct {
	TransactionID string `json:"transaction_id"`
	AffiliateID   string `json:"affiliate_id"`
	SaleAmount    string `json:"sale_amount"`
	Currency      string `json:"currency"`
	ProductName   string `json:"product_name"`
}

// Normalize verifies the body signature and maps the notification to a sale
// event.
func (a *LinkshareAdapter) Normalize(body []byte, header http.Header) (*domain.IncomingEvent, error) {
	if !verifyHMAC(a.secret, body, header.Get(SignatureHeader)) {
		return nil, domain.ErrBadSignature
	}

	var p linksharePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, domain.ErrMalformedPayload
	}

	if p.TransactionID == "" || p.AffiliateID == "" {
		return nil, domain.ErrMalformedPayload
	}

	amount, err := decimal.NewFromString(p.SaleAmount)
	if err != nil || !amount.IsPositive() {
		return nil, domain.ErrMalformedPayload
	}

	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}

	return &domain.IncomingEvent{
		Provider:   a.Provider(),
		ExternalID: p.TransactionID,
		UserID:     p.AffiliateID,
		Kind:       domain.EventKindSale,
		EventType:  "sale",
		Amount:     amount,
		Currency:   strings.ToUpper(currency),
		OfferName:  p.ProductName,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
