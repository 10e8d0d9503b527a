package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/leadpay/earnings/internal/adapter/http"
	"github.com/leadpay/earnings/internal/adapter/http/handler"
	"github.com/leadpay/earnings/internal/adapter/http/middleware"
	"github.com/leadpay/earnings/internal/adapter/provider"
	postgresRepo "github.com/leadpay/earnings/internal/adapter/repository/postgres"
	redisRepo "github.com/leadpay/earnings/internal/adapter/repository/redis"
	"github.com/leadpay/earnings/internal/infrastructure/auth"
	"github.com/leadpay/earnings/internal/infrastructure/config"
	"github.com/leadpay/earnings/internal/infrastructure/eventpublisher"
	"github.com/leadpay/earnings/internal/infrastructure/logger"
	"github.com/leadpay/earnings/internal/infrastructure/logging"
	"github.com/leadpay/earnings/internal/infrastructure/metrics"
	"github.com/leadpay/earnings/internal/infrastructure/postgres"
	"github.com/leadpay/earnings/internal/infrastructure/redis"
	"github.com/leadpay/earnings/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	httpLog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = httpLog
	workerLog := logging.New(cfg.LogLevel, cfg.LogFormat)

	minWithdrawal, err := cfg.MinWithdrawal()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid MIN_WITHDRAWAL_AMOUNT")
	}

	tiers, err := cfg.Tiers()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid COMMISSION_TIERS")
	}

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	webhookLogRepo := postgresRepo.NewWebhookLogRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	deliveryRepo := postgresRepo.NewDeliveryRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	cache := redisRepo.NewCache(redisClient)
	dedupeGuard := redisRepo.NewDedupeGuard(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, entryRepo, balanceRepo, outboxRepo, deliveryRepo, idGen, tiers).
		WithCache(cache).
		WithMetrics(m)

	withdrawalUC := usecase.NewWithdrawalUseCase(txManager, withdrawalRepo, balanceRepo, entryRepo, outboxRepo, idGen, minWithdrawal).
		WithCache(cache).
		WithMetrics(m)

	adapters, disabled := provider.Registry(provider.Secrets{
		Cpalead:   cfg.CpaleadSecret,
		Linkshare: cfg.LinkshareSecret,
		Payward:   cfg.PaywardSecret,
	})
	for _, name := range disabled {
		log.Warn().Str("provider", name).Msg("webhook secret not configured, provider disabled")
	}

	webhookUC := usecase.NewWebhookUseCase(adapters, ledgerUC, withdrawalUC, webhookLogRepo, idGen).
		WithDedupeGuard(dedupeGuard).
		WithRetrier(retrier).
		WithMetrics(m)

	monitorUC := usecase.NewMonitorUseCase(webhookLogRepo)

	reconciliationUC := usecase.NewReconciliationUseCase(
		balanceRepo, entryRepo, logging.ForComponent(workerLog, "reconciliation")).
		WithMetrics(m)

	// Authentication. Without a JWT secret the service trusts the gateway's
	// X-User-ID header.
	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
		log.Info().Msg("JWT authentication enabled")
	} else {
		log.Warn().Msg("JWT disabled, trusting X-User-ID header")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WebhookHandler:    handler.NewWebhookHandler(webhookUC),
		RewardsHandler:    handler.NewRewardsHandler(ledgerUC),
		WithdrawalHandler: handler.NewWithdrawalHandler(withdrawalUC),
		MonitorHandler:    handler.NewMonitorHandler(monitorUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		Authenticator:     middleware.NewAuthenticator(jwtManager),
		RateLimiter:       rateLimiter,
		IdempotencyStore:  idempotencyStore,
		IdempotencyTTL:    cfg.IdempotencyTTL,
		Logger:            httpLog,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				rateLimiter.CleanupLimiters()
			}
		}
	}()

	// Outbox publisher fans committed events out over Redis.
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewRedisPublisher(redisClient, "earnings.events"),
		Logger:     logging.ForComponent(workerLog, "outbox"),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	// Scheduled balance reconciliation.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconciliationSchedule, func() {
		runCtx, cancel := context.WithTimeout(workerCtx, 10*time.Minute)
		defer cancel()
		if _, err := reconciliationUC.ReconcileAll(runCtx); err != nil {
			log.Error().Err(err).Msg("reconciliation run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReconciliationSchedule).Msg("invalid reconciliation schedule")
	}
	scheduler.Start()

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	stopWorkers()
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
