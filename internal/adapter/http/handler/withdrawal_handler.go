package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadpay/earnings/internal/adapter/http/dto"
	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// WithdrawalService defines the behavior needed by WithdrawalHandler.
type WithdrawalService interface {
	Request(ctx context.Context, input usecase.RequestInput) (*domain.WithdrawalRequest, error)
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	History(ctx context.Context, input usecase.HistoryInput) ([]*domain.WithdrawalRequest, *domain.WithdrawalSummary, error)
	MarkProcessing(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	Complete(ctx context.Context, id, confirmationRef string) (*domain.WithdrawalRequest, error)
	Reject(ctx context.Context, id, reason string) (*domain.WithdrawalRequest, error)
}

// WithdrawalHandler serves withdrawal requests and the operator transitions.
type WithdrawalHandler struct {
	withdrawalUC WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalUC WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalUC: withdrawalUC}
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(user.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	withdrawal, err := h.withdrawalUC.Request(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create withdrawal", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalFromDomain(withdrawal))
}

// Get handles GET /api/v1/withdrawals/{id}. Users only see their own
// requests; admins and operators see everything.
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	withdrawal, err := h.withdrawalUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get withdrawal", err.Error())
		return
	}

	if withdrawal.UserID != user.ID && user.Role == domain.RoleUser {
		writeError(w, http.StatusNotFound, "withdrawal not found", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}

// History handles GET /api/v1/withdrawals.
func (h *WithdrawalHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	withdrawals, summary, err := h.withdrawalUC.History(r.Context(), usecase.HistoryInput{
		UserID: user.ID,
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list withdrawals", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalHistoryFromDomain(withdrawals, summary))
}

// MarkProcessing handles POST /api/v1/admin/withdrawals/{id}/processing.
func (h *WithdrawalHandler) MarkProcessing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	withdrawal, err := h.withdrawalUC.MarkProcessing(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to mark processing", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}

// Complete handles POST /api/v1/admin/withdrawals/{id}/complete.
func (h *WithdrawalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CompleteWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	withdrawal, err := h.withdrawalUC.Complete(r.Context(), id, req.ConfirmationRef)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete withdrawal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}

// Reject handles POST /api/v1/admin/withdrawals/{id}/reject.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.RejectWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	withdrawal, err := h.withdrawalUC.Reject(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reject withdrawal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}
