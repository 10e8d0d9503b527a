package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/leadpay/earnings/internal/adapter/http/dto"
	"github.com/leadpay/earnings/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrBalanceNotFound),
		errors.Is(err, domain.ErrWithdrawalNotFound),
		errors.Is(err, domain.ErrUnknownTransaction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountBelowMinimum),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidDestination),
		errors.Is(err, domain.ErrUnsupportedMethod),
		errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrOverReversal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrDuplicateExternalRef):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// currentUser extracts the authenticated user or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return nil, false
	}
	return user, true
}
