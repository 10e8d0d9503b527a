package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook ingestion metrics
	WebhooksReceived         *prometheus.CounterVec
	WebhookProcessingSeconds *prometheus.HistogramVec

	// Ledger metrics
	EntriesCreated *prometheus.CounterVec
	EarningAmount  prometheus.Histogram

	// Withdrawal metrics
	WithdrawalTransitions *prometheus.CounterVec
	WithdrawalAmount      prometheus.Histogram

	// Reconciliation metrics
	BalanceDrift prometheus.Counter

	// Cache metrics
	CacheOperations *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		WebhooksReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_webhooks_received_total",
				Help: "Total webhook deliveries by provider and outcome",
			},
			[]string{"provider", "status"},
		),
		WebhookProcessingSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnings_webhook_processing_seconds",
				Help:    "Webhook processing duration by provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		EntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_ledger_entries_created_total",
				Help: "Total ledger entries created by kind",
			},
			[]string{"kind"},
		),
		EarningAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "earnings_earning_amount",
			Help:    "Earning entry amounts",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
		}),

		WithdrawalTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_withdrawal_transitions_total",
				Help: "Total withdrawal status transitions by target status",
			},
			[]string{"status"},
		),
		WithdrawalAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "earnings_withdrawal_amount",
			Help:    "Withdrawal request amounts",
			Buckets: []float64{3, 5, 10, 25, 50, 100, 250, 500},
		}),

		BalanceDrift: promauto.NewCounter(prometheus.CounterOpts{
			Name: "earnings_balance_drift_total",
			Help: "Total balance rows found diverging from the entry log",
		}),

		CacheOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_cache_operations_total",
				Help: "Total cache operations by type and result",
			},
			[]string{"operation", "result"},
		),
	}
}
