package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadpay/earnings/internal/adapter/http/dto"
	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// Providers never send bodies anywhere near this; anything larger is abuse.
const maxWebhookBody = 1 << 20

// WebhookService defines the behavior needed by WebhookHandler.
type WebhookService interface {
	Process(ctx context.Context, providerID string, body []byte, header http.Header) *usecase.WebhookResult
}

// WebhookHandler receives provider webhook deliveries.
type WebhookHandler struct {
	webhookUC WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookUC WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookUC: webhookUC}
}

// Receive handles POST /webhooks/{provider}. Status codes are the retry
// contract with providers: 200 for applied or already-applied, 4xx for
// deliveries that must not be retried, 5xx for transient failures.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}

	result := h.webhookUC.Process(r.Context(), providerID, body, r.Header)

	switch result.Outcome {
	case usecase.OutcomeProcessed:
		writeJSON(w, http.StatusOK, dto.WebhookAckResponse{Status: "ok", LogID: result.LogID})

	case usecase.OutcomeDuplicate:
		writeJSON(w, http.StatusOK, dto.WebhookAckResponse{Status: "duplicate", LogID: result.LogID})

	case usecase.OutcomeRejected:
		writeError(w, rejectionStatus(result.Err), "rejected", errMessage(result.Err))

	default:
		writeError(w, http.StatusInternalServerError, "processing failed", errMessage(result.Err))
	}
}

func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadSignature):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
