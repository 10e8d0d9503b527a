package dto

import (
	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// CreateWithdrawalRequest represents a withdrawal request body.
type CreateWithdrawalRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

// ToUseCaseInput converts the request to use case input for the
// authenticated user.
func (r *CreateWithdrawalRequest) ToUseCaseInput(userID string) (usecase.RequestInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.RequestInput{}, domain.ErrInvalidAmount
	}

	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}

	return usecase.RequestInput{
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		Method:      r.Method,
		Destination: r.Destination,
	}, nil
}

// RejectWithdrawalRequest carries the operator's rejection reason.
type RejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

// CompleteWithdrawalRequest carries the payment rail confirmation reference.
type CompleteWithdrawalRequest struct {
	ConfirmationRef string `json:"confirmation_ref"`
}
