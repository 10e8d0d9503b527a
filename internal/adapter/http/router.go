package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/leadpay/earnings/internal/adapter/http/handler"
	"github.com/leadpay/earnings/internal/adapter/http/middleware"
	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WebhookHandler    *handler.WebhookHandler
	RewardsHandler    *handler.RewardsHandler
	WithdrawalHandler *handler.WithdrawalHandler
	MonitorHandler    *handler.MonitorHandler
	HealthHandler     *handler.HealthHandler

	Authenticator    *middleware.Authenticator
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
//
// Webhook routes sit outside the user API: providers authenticate their
// deliveries by signature, not by bearer token, and they must never be
// rate limited by client IP.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Provider webhooks
	r.Post("/webhooks/{provider}", cfg.WebhookHandler.Receive)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Use(cfg.Authenticator.Wrap)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Get("/balance", cfg.RewardsHandler.GetBalance)
		r.Get("/rewards", cfg.RewardsHandler.History)

		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", cfg.WithdrawalHandler.Create)
			r.Get("/", cfg.WithdrawalHandler.History)
			r.Get("/{id}", cfg.WithdrawalHandler.Get)
		})

		// Operator surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleOperator))

			r.Get("/webhooks/stats", cfg.MonitorHandler.Stats)
			r.Get("/webhooks/recent", cfg.MonitorHandler.Recent)

			r.Route("/withdrawals/{id}", func(r chi.Router) {
				r.Post("/processing", cfg.WithdrawalHandler.MarkProcessing)
				r.Post("/complete", cfg.WithdrawalHandler.Complete)
				r.Post("/reject", cfg.WithdrawalHandler.Reject)
			})
		})
	})

	return r
}
