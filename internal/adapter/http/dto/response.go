package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
)

// BalanceResponse represents a user balance in API responses.
type BalanceResponse struct {
	UserID    string          `json:"user_id"`
	Available decimal.Decimal `json:"available"`
	Currency  string          `json:"currency"`
}

// EntryResponse represents a rewards ledger entry in API responses.
type EntryResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Provider    string          `json:"provider,omitempty"`
	ExternalID  string          `json:"external_id,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}

	if e.ExternalRef != nil {
		resp.Provider = e.ExternalRef.Provider
		resp.ExternalID = e.ExternalRef.ExternalID
	}

	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// RewardsSummaryResponse summarizes a user's rewards history.
type RewardsSummaryResponse struct {
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	TotalReversals decimal.Decimal `json:"total_reversals"`
	ApprovedCount  int64           `json:"approved_count"`
	ReversedCount  int64           `json:"reversed_count"`
}

// RewardsHistoryResponse is the rewards history page.
type RewardsHistoryResponse struct {
	Entries []*EntryResponse       `json:"entries"`
	Summary RewardsSummaryResponse `json:"summary"`
}

// RewardsHistoryFromDomain builds the history page response.
func RewardsHistoryFromDomain(entries []*domain.LedgerEntry, summary *domain.RewardsSummary) *RewardsHistoryResponse {
	return &RewardsHistoryResponse{
		Entries: EntriesFromDomain(entries),
		Summary: RewardsSummaryResponse{
			TotalEarnings:  summary.TotalEarnings,
			TotalReversals: summary.TotalReversals,
			ApprovedCount:  summary.ApprovedCount,
			ReversedCount:  summary.ReversedCount,
		},
	}
}

// WithdrawalResponse represents a withdrawal request in API responses.
type WithdrawalResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Method          string          `json:"method"`
	Destination     string          `json:"destination"`
	Status          string          `json:"status"`
	RejectReason    string          `json:"reject_reason,omitempty"`
	ConfirmationRef string          `json:"confirmation_ref,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

// WithdrawalFromDomain converts a domain withdrawal to a response.
func WithdrawalFromDomain(w *domain.WithdrawalRequest) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:              w.ID,
		UserID:          w.UserID,
		Amount:          w.Amount,
		Currency:        w.Currency,
		Method:          w.Method,
		Destination:     w.Destination,
		Status:          string(w.Status),
		RejectReason:    w.RejectReason,
		ConfirmationRef: w.ConfirmationRef,
		CreatedAt:       w.CreatedAt,
		ProcessedAt:     w.ProcessedAt,
	}
}

// WithdrawalsFromDomain converts domain withdrawals to responses.
func WithdrawalsFromDomain(withdrawals []*domain.WithdrawalRequest) []*WithdrawalResponse {
	result := make([]*WithdrawalResponse, len(withdrawals))
	for i, w := range withdrawals {
		result[i] = WithdrawalFromDomain(w)
	}
	return result
}

// WithdrawalSummaryResponse summarizes a user's withdrawal history.
type WithdrawalSummaryResponse struct {
	TotalRequested  decimal.Decimal `json:"total_requested"`
	TotalApproved   decimal.Decimal `json:"total_approved"`
	PendingCount    int64           `json:"pending_count"`
	ProcessingCount int64           `json:"processing_count"`
	CompletedCount  int64           `json:"completed_count"`
	RejectedCount   int64           `json:"rejected_count"`
}

// WithdrawalHistoryResponse is the withdrawal history page.
type WithdrawalHistoryResponse struct {
	Withdrawals []*WithdrawalResponse     `json:"withdrawals"`
	Summary     WithdrawalSummaryResponse `json:"summary"`
}

// WithdrawalHistoryFromDomain builds the history page response.
func WithdrawalHistoryFromDomain(withdrawals []*domain.WithdrawalRequest, summary *domain.WithdrawalSummary) *WithdrawalHistoryResponse {
	return &WithdrawalHistoryResponse{
		Withdrawals: WithdrawalsFromDomain(withdrawals),
		Summary: WithdrawalSummaryResponse{
			TotalRequested:  summary.TotalRequested,
			TotalApproved:   summary.TotalApproved,
			PendingCount:    summary.PendingCount,
			ProcessingCount: summary.ProcessingCount,
			CompletedCount:  summary.CompletedCount,
			RejectedCount:   summary.RejectedCount,
		},
	}
}

// WebhookAckResponse acknowledges a webhook delivery.
type WebhookAckResponse struct {
	Status string `json:"status"`
	LogID  string `json:"log_id,omitempty"`
}

// ProviderStatsResponse represents per-provider delivery aggregates.
type ProviderStatsResponse struct {
	Provider           string     `json:"provider"`
	Total              int64      `json:"total"`
	Processed          int64      `json:"processed"`
	Duplicates         int64      `json:"duplicates"`
	Errors             int64      `json:"errors"`
	PremiumActivations int64      `json:"premium_activations"`
	AvgProcessingMs    float64    `json:"avg_processing_ms"`
	LastEventAt        *time.Time `json:"last_event_at,omitempty"`
}

// ProviderStatsFromDomain converts provider stats to responses.
func ProviderStatsFromDomain(stats []*domain.ProviderStats) []*ProviderStatsResponse {
	result := make([]*ProviderStatsResponse, len(stats))
	for i, s := range stats {
		result[i] = &ProviderStatsResponse{
			Provider:           s.Provider,
			Total:              s.Total,
			Processed:          s.Processed,
			Duplicates:         s.Duplicates,
			Errors:             s.Errors,
			PremiumActivations: s.PremiumActivations,
			AvgProcessingMs:    s.AvgProcessingMs,
			LastEventAt:        s.LastEventAt,
		}
	}
	return result
}

// WebhookLogResponse represents a webhook delivery record.
type WebhookLogResponse struct {
	ID               string          `json:"id"`
	Provider         string          `json:"provider"`
	EventType        string          `json:"event_type"`
	Status           string          `json:"status"`
	UserRef          string          `json:"user_ref,omitempty"`
	TransactionRef   string          `json:"transaction_ref,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// WebhookLogsFromDomain converts webhook log records to responses.
func WebhookLogsFromDomain(records []*domain.WebhookLogRecord) []*WebhookLogResponse {
	result := make([]*WebhookLogResponse, len(records))
	for i, rec := range records {
		result[i] = &WebhookLogResponse{
			ID:               rec.ID,
			Provider:         rec.Provider,
			EventType:        rec.EventType,
			Status:           string(rec.Status),
			UserRef:          rec.UserRef,
			TransactionRef:   rec.TransactionRef,
			Amount:           rec.Amount,
			ProcessingTimeMs: rec.ProcessingTimeMs,
			ErrorMessage:     rec.ErrorMessage,
			CreatedAt:        rec.CreatedAt,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
