package handler

import (
	"context"
	"net/http"

	"github.com/leadpay/earnings/internal/adapter/http/dto"
	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// MonitorService defines the behavior needed by MonitorHandler.
type MonitorService interface {
	Stats(ctx context.Context) ([]*domain.ProviderStats, error)
	Recent(ctx context.Context, input usecase.RecentInput) ([]*domain.WebhookLogRecord, error)
}

// MonitorHandler serves the admin webhook monitor.
type MonitorHandler struct {
	monitorUC MonitorService
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorUC MonitorService) *MonitorHandler {
	return &MonitorHandler{monitorUC: monitorUC}
}

// Stats handles GET /api/v1/admin/webhooks/stats.
func (h *MonitorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.monitorUC.Stats(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to aggregate stats", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProviderStatsFromDomain(stats))
}

// Recent handles GET /api/v1/admin/webhooks/recent.
func (h *MonitorHandler) Recent(w http.ResponseWriter, r *http.Request) {
	records, err := h.monitorUC.Recent(r.Context(), usecase.RecentInput{
		Provider: r.URL.Query().Get("provider"),
		Limit:    parseIntQuery(r, "limit", 50),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list deliveries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookLogsFromDomain(records))
}
