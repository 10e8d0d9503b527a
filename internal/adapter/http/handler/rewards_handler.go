package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/adapter/http/dto"
	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// RewardsService defines the behavior needed by RewardsHandler.
type RewardsService interface {
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	History(ctx context.Context, input usecase.HistoryInput) ([]*domain.LedgerEntry, *domain.RewardsSummary, error)
}

// RewardsHandler serves the user-facing balance and rewards history.
type RewardsHandler struct {
	ledgerUC RewardsService
}

// NewRewardsHandler creates a new RewardsHandler.
func NewRewardsHandler(ledgerUC RewardsService) *RewardsHandler {
	return &RewardsHandler{ledgerUC: ledgerUC}
}

// GetBalance handles GET /api/v1/balance.
func (h *RewardsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	available, err := h.ledgerUC.GetBalance(r.Context(), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		UserID:    user.ID,
		Available: available,
		Currency:  "USD",
	})
}

// History handles GET /api/v1/rewards.
func (h *RewardsHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	entries, summary, err := h.ledgerUC.History(r.Context(), usecase.HistoryInput{
		UserID: user.ID,
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list rewards", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RewardsHistoryFromDomain(entries, summary))
}
