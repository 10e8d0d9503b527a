package provider

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
)

// CpaleadAdapter normalizes cpalead offerwall postbacks. Payloads are
// URL-encoded forms authenticated by a shared-secret password parameter.
// Leads are pre-priced earnings; chargebacks reverse them.
type CpaleadAdapter struct {
	secret string
}

// NewCpaleadAdapter creates a new CpaleadAdapter.
func NewCpaleadAdapter(secret string) *CpaleadAdapter {
	return &CpaleadAdapter{secret: secret}
}

// Provider returns the provider id.
func (a *CpaleadAdapter) Provider() string {
	return "cpalead"
}

// Normalize verifies the shared secret and maps the postback to an incoming
// event. Chargebacks arrive as type=chargeback or with a negative amount.
func (a *CpaleadAdapter) Normalize(body []byte, _ http.Header) (*domain.IncomingEvent, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, domain.ErrMalformedPayload
	}

	password := values.Get("password")
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.secret)) != 1 {
		return nil, domain.ErrBadSignature
	}

	userID := values.Get("subid")
	transID := values.Get("trans_id")
	if userID == "" || transID == "" {
		return nil, domain.ErrMalformedPayload
	}

	amount, err := decimal.NewFromString(values.Get("amount"))
	if err != nil {
		return nil, domain.ErrMalformedPayload
	}

	kind := domain.EventKindEarning
	eventType := "lead"

	if strings.EqualFold(values.Get("type"), "chargeback") || amount.IsNegative() {
		kind = domain.EventKindReversal
		eventType = "chargeback"
		amount = amount.Abs()
	}

	currency := values.Get("currency")
	if currency == "" {
		currency = "USD"
	}

	return &domain.IncomingEvent{
		Provider:   a.Provider(),
		ExternalID: transID,
		UserID:     userID,
		Kind:       kind,
		EventType:  eventType,
		Amount:     amount,
		Currency:   strings.ToUpper(currency),
		OfferName:  values.Get("offer_name"),
		ReceivedAt: time.Now().UTC(),
	}, nil
}
