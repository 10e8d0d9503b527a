package domain

import (
	"errors"
	"testing"
)

func TestWithdrawalCanTransition(t *testing.T) {
	tests := []struct {
		from   WithdrawalStatus
		to     WithdrawalStatus
		want   bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusProcessing, true},
		{WithdrawalStatusPending, WithdrawalStatusRejected, true},
		{WithdrawalStatusPending, WithdrawalStatusCompleted, false},
		{WithdrawalStatusProcessing, WithdrawalStatusCompleted, true},
		{WithdrawalStatusProcessing, WithdrawalStatusRejected, true},
		{WithdrawalStatusProcessing, WithdrawalStatusPending, false},
		{WithdrawalStatusCompleted, WithdrawalStatusRejected, false},
		{WithdrawalStatusCompleted, WithdrawalStatusProcessing, false},
		{WithdrawalStatusRejected, WithdrawalStatusProcessing, false},
		{WithdrawalStatusRejected, WithdrawalStatusCompleted, false},
	}

	for _, tt := range tests {
		w := &WithdrawalRequest{Status: tt.from}
		if got := w.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestWithdrawalIsTerminal(t *testing.T) {
	for _, status := range []WithdrawalStatus{WithdrawalStatusPending, WithdrawalStatusProcessing} {
		if (&WithdrawalRequest{Status: status}).IsTerminal() {
			t.Errorf("%s must not be terminal", status)
		}
	}
	for _, status := range []WithdrawalStatus{WithdrawalStatusCompleted, WithdrawalStatusRejected} {
		if !(&WithdrawalRequest{Status: status}).IsTerminal() {
			t.Errorf("%s must be terminal", status)
		}
	}
}

func TestValidateDestination(t *testing.T) {
	if err := ValidateDestination(MethodPayPal, "user@example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateDestination(MethodPayPal, "not-an-email"); !errors.Is(err, ErrInvalidDestination) {
		t.Errorf("expected ErrInvalidDestination, got %v", err)
	}

	if err := ValidateDestination("wire", "DE89370400440532013000"); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}
}
