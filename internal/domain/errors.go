package domain

import "errors"

var (
	// Ledger errors
	ErrDuplicateExternalRef = errors.New("external reference already applied")
	ErrUnknownTransaction   = errors.New("no earning found for external reference")
	ErrOverReversal         = errors.New("reversal exceeds remaining unreversed amount")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidEntryKind     = errors.New("invalid ledger entry kind")
	ErrBalanceNotFound      = errors.New("balance not found")

	// Withdrawal errors
	ErrWithdrawalNotFound      = errors.New("withdrawal not found")
	ErrAmountBelowMinimum      = errors.New("amount below minimum withdrawal")
	ErrInvalidDestination      = errors.New("invalid destination for payout method")
	ErrUnsupportedMethod       = errors.New("unsupported payout method")
	ErrInvalidStatusTransition = errors.New("invalid withdrawal status transition")

	// Webhook errors
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrBadSignature       = errors.New("payload signature verification failed")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrUnknownUser        = errors.New("event references unknown user")
	ErrWebhookLogNotFound = errors.New("webhook log record not found")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("insufficient permissions")
)
