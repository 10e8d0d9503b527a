package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrInvalidEmail    = errors.New("invalid email format")
)

// MaxEventAmount caps a single webhook-delivered amount; anything above it is
// treated as a provider anomaly.
const MaxEventAmount = "100000"

// Valid currency codes (ISO 4217) accepted from providers.
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "CAD": true,
	"AUD": true, "JPY": true, "CHF": true, "SEK": true,
	"NOK": true, "NZD": true, "SGD": true, "HKD": true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateEventAmount validates a webhook-delivered monetary amount.
func ValidateEventAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxEventAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEventAmount)
	}

	return nil
}

// ValidateEmail validates email format.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 500
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
