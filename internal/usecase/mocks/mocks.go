// Package mocks provides hand-written mock implementations of the usecase
// interfaces. Every mock carries optional Func fields to override behavior
// per test; without an override it behaves like an in-memory store.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry
	order   []string

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetEarningByRefFunc func(ctx context.Context, tx usecase.Transaction, ref domain.ExternalRef) (*domain.LedgerEntry, error)
	SumReversalsFunc    func(ctx context.Context, tx usecase.Transaction, originalEntryID string) (decimal.Decimal, error)
	HistoryFunc         func(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, *domain.RewardsSummary, error)
	SumByUserFunc       func(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
	}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Mirror the partial unique index over earning refs.
	if entry.Kind == domain.EntryKindEarning && entry.ExternalRef != nil {
		for _, e := range m.entries {
			if e.Kind == domain.EntryKindEarning && e.ExternalRef != nil && *e.ExternalRef == *entry.ExternalRef {
				return domain.ErrDuplicateExternalRef
			}
		}
	}

	m.entries[entry.ID] = entry
	m.order = append(m.order, entry.ID)
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, domain.ErrUnknownTransaction
}

func (m *MockEntryRepository) GetEarningByRef(ctx context.Context, tx usecase.Transaction, ref domain.ExternalRef) (*domain.LedgerEntry, error) {
	if m.GetEarningByRefFunc != nil {
		return m.GetEarningByRefFunc(ctx, tx, ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		e := m.entries[id]
		if e.Kind == domain.EntryKindEarning && e.ExternalRef != nil && *e.ExternalRef == ref {
			return e, nil
		}
	}
	return nil, domain.ErrUnknownTransaction
}

func (m *MockEntryRepository) SumReversals(ctx context.Context, tx usecase.Transaction, originalEntryID string) (decimal.Decimal, error) {
	if m.SumReversalsFunc != nil {
		return m.SumReversalsFunc(ctx, tx, originalEntryID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.Kind == domain.EntryKindReversal && e.RelatedEntryID != nil && *e.RelatedEntryID == originalEntryID {
			sum = sum.Add(e.Amount.Neg())
		}
	}
	return sum, nil
}

func (m *MockEntryRepository) History(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, *domain.RewardsSummary, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*domain.LedgerEntry
	summary := &domain.RewardsSummary{}
	for _, id := range m.order {
		e := m.entries[id]
		if e.UserID != userID {
			continue
		}
		switch e.Kind {
		case domain.EntryKindEarning:
			summary.TotalEarnings = summary.TotalEarnings.Add(e.Amount)
			summary.ApprovedCount++
		case domain.EntryKindReversal:
			summary.TotalReversals = summary.TotalReversals.Add(e.Amount.Neg())
			summary.ReversedCount++
		default:
			continue
		}
		entries = append(entries, e)
	}
	return entries, summary, nil
}

func (m *MockEntryRepository) SumByUser(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.SumByUserFunc != nil {
		return m.SumByUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	available, lifetime := decimal.Zero, decimal.Zero
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		available = available.Add(e.Amount)
		if e.Kind == domain.EntryKindEarning {
			lifetime = lifetime.Add(e.Amount)
		}
	}
	return available, lifetime, nil
}

// Entries returns all stored entries, in insertion order.
func (m *MockEntryRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[string]*domain.Balance

	GetForUpdateFunc func(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Balance, error)
	GetFunc          func(ctx context.Context, userID string) (*domain.Balance, error)
	UpdateFunc       func(ctx context.Context, tx usecase.Transaction, userID string, available, lifetime decimal.Decimal, updatedAt time.Time) error
	ListFunc         func(ctx context.Context, limit, offset int) ([]*domain.Balance, error)
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[string]*domain.Balance),
	}
}

// Seed installs a balance row directly.
func (m *MockBalanceRepository) Seed(b *domain.Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[b.UserID] = b
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Balance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[userID]; ok {
		return b, nil
	}
	b := &domain.Balance{UserID: userID, Available: decimal.Zero, LifetimeEarnings: decimal.Zero, Version: 1}
	m.balances[userID] = b
	return b, nil
}

func (m *MockBalanceRepository) Get(ctx context.Context, userID string) (*domain.Balance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[userID]; ok {
		return b, nil
	}
	return nil, domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) Update(ctx context.Context, tx usecase.Transaction, userID string, available, lifetime decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, userID, available, lifetime, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[userID]; ok {
		b.Available = available
		b.LifetimeEarnings = lifetime
		b.Version++
		b.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockBalanceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Balance, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Balance
	for _, b := range m.balances {
		out = append(out, b)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository.
type MockWithdrawalRepository struct {
	mu          sync.RWMutex
	withdrawals map[string]*domain.WithdrawalRequest

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, rejectReason, confirmationRef string, processedAt *time.Time) error
	HistoryFunc          func(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, *domain.WithdrawalSummary, error)
}

func NewMockWithdrawalRepository() *MockWithdrawalRepository {
	return &MockWithdrawalRepository{
		withdrawals: make(map[string]*domain.WithdrawalRequest),
	}
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, w)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawals[w.ID] = w
	return nil
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.withdrawals[id]; ok {
		return w, nil
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockWithdrawalRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, rejectReason, confirmationRef string, processedAt *time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, rejectReason, confirmationRef, processedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return domain.ErrWithdrawalNotFound
	}
	w.Status = status
	w.RejectReason = rejectReason
	w.ConfirmationRef = confirmationRef
	w.ProcessedAt = processedAt
	return nil
}

func (m *MockWithdrawalRepository) History(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, *domain.WithdrawalSummary, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.WithdrawalRequest
	summary := &domain.WithdrawalSummary{}
	for _, w := range m.withdrawals {
		if w.UserID != userID {
			continue
		}
		out = append(out, w)
		summary.TotalRequested = summary.TotalRequested.Add(w.Amount)
		switch w.Status {
		case domain.WithdrawalStatusPending:
			summary.PendingCount++
		case domain.WithdrawalStatusProcessing:
			summary.ProcessingCount++
		case domain.WithdrawalStatusCompleted:
			summary.CompletedCount++
			summary.TotalApproved = summary.TotalApproved.Add(w.Amount)
		case domain.WithdrawalStatusRejected:
			summary.RejectedCount++
		}
	}
	return out, summary, nil
}

// MockWebhookLogRepository is a mock implementation of WebhookLogRepository.
type MockWebhookLogRepository struct {
	mu      sync.RWMutex
	records []*domain.WebhookLogRecord

	CreateFunc          func(ctx context.Context, rec *domain.WebhookLogRecord) error
	FinalizeFunc        func(ctx context.Context, id string, status domain.WebhookLogStatus, errorMessage string, processingTimeMs int64) error
	HasProcessedFunc    func(ctx context.Context, provider, transactionRef, eventType string) (bool, error)
	StatsByProviderFunc func(ctx context.Context) ([]*domain.ProviderStats, error)
	ListRecentFunc      func(ctx context.Context, provider string, limit, offset int) ([]*domain.WebhookLogRecord, error)
}

func NewMockWebhookLogRepository() *MockWebhookLogRepository {
	return &MockWebhookLogRepository{}
}

func (m *MockWebhookLogRepository) Create(ctx context.Context, rec *domain.WebhookLogRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MockWebhookLogRepository) Finalize(ctx context.Context, id string, status domain.WebhookLogStatus, errorMessage string, processingTimeMs int64) error {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, id, status, errorMessage, processingTimeMs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			rec.Status = status
			rec.ErrorMessage = errorMessage
			rec.ProcessingTimeMs = processingTimeMs
			return nil
		}
	}
	return domain.ErrWebhookLogNotFound
}

func (m *MockWebhookLogRepository) HasProcessed(ctx context.Context, provider, transactionRef, eventType string) (bool, error) {
	if m.HasProcessedFunc != nil {
		return m.HasProcessedFunc(ctx, provider, transactionRef, eventType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.Provider == provider && rec.TransactionRef == transactionRef &&
			rec.EventType == eventType && rec.Status == domain.WebhookStatusProcessed {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockWebhookLogRepository) StatsByProvider(ctx context.Context) ([]*domain.ProviderStats, error) {
	if m.StatsByProviderFunc != nil {
		return m.StatsByProviderFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	byProvider := make(map[string]*domain.ProviderStats)
	var order []string
	for _, rec := range m.records {
		stats, ok := byProvider[rec.Provider]
		if !ok {
			stats = &domain.ProviderStats{Provider: rec.Provider}
			byProvider[rec.Provider] = stats
			order = append(order, rec.Provider)
		}
		stats.Total++
		switch rec.Status {
		case domain.WebhookStatusProcessed:
			stats.Processed++
		case domain.WebhookStatusDuplicate:
			stats.Duplicates++
		case domain.WebhookStatusError:
			stats.Errors++
		}
	}
	out := make([]*domain.ProviderStats, 0, len(order))
	for _, p := range order {
		out = append(out, byProvider[p])
	}
	return out, nil
}

func (m *MockWebhookLogRepository) ListRecent(ctx context.Context, provider string, limit, offset int) ([]*domain.WebhookLogRecord, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, provider, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WebhookLogRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if provider == "" || m.records[i].Provider == provider {
			out = append(out, m.records[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Records returns all log rows.
func (m *MockWebhookLogRepository) Records() []*domain.WebhookLogRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.WebhookLogRecord(nil), m.records...)
}

// MockDeliveryRepository is a mock implementation of DeliveryRepository.
type MockDeliveryRepository struct {
	mu      sync.Mutex
	applied map[string]*domain.ProcessedDelivery

	MarkAppliedFunc func(ctx context.Context, tx usecase.Transaction, d *domain.ProcessedDelivery) error
}

func NewMockDeliveryRepository() *MockDeliveryRepository {
	return &MockDeliveryRepository{applied: make(map[string]*domain.ProcessedDelivery)}
}

func (m *MockDeliveryRepository) MarkApplied(ctx context.Context, tx usecase.Transaction, d *domain.ProcessedDelivery) error {
	if m.MarkAppliedFunc != nil {
		return m.MarkAppliedFunc(ctx, tx, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := d.Provider + ":" + d.ExternalID + ":" + d.EventType
	if _, ok := m.applied[key]; ok {
		return domain.ErrDuplicateExternalRef
	}
	m.applied[key] = d
	return nil
}

// Applied returns the stored marker for the key, if any.
func (m *MockDeliveryRepository) Applied(provider, externalID, eventType string) *domain.ProcessedDelivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[provider+":"+externalID+":"+eventType]
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) (int64, error)
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	return 0, nil
}

// Events returns all staged events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu     sync.RWMutex
	values map[string]string

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

// ErrCacheMiss is returned by MockCache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string]string)}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Has reports whether a key is currently cached.
func (m *MockCache) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}

// MockDedupeGuard is a mock implementation of DedupeGuard.
type MockDedupeGuard struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, key string) error
}

func NewMockDedupeGuard() *MockDedupeGuard {
	return &MockDedupeGuard{held: make(map[string]bool)}
}

func (m *MockDedupeGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockDedupeGuard) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// Held reports whether a key is currently held.
func (m *MockDedupeGuard) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}

// MockRetrier is a mock implementation of Retrier that runs the operation
// exactly once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockProviderAdapter is a mock implementation of ProviderAdapter.
type MockProviderAdapter struct {
	ProviderName  string
	NormalizeFunc func(body []byte, header http.Header) (*domain.IncomingEvent, error)
}

func (m *MockProviderAdapter) Provider() string {
	return m.ProviderName
}

func (m *MockProviderAdapter) Normalize(body []byte, header http.Header) (*domain.IncomingEvent, error) {
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(body, header)
	}
	return nil, domain.ErrMalformedPayload
}
