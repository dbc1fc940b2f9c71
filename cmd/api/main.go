package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-gateway/config"
	httpHandler "payment-gateway/internal/adapter/http/handler"
	pgStorage "payment-gateway/internal/adapter/storage/postgres"
	redisStorage "payment-gateway/internal/adapter/storage/redis"
	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/service"
	"payment-gateway/internal/worker"
	"payment-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Payment Gateway API")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	webhookRepo := pgStorage.NewWebhookLogRepo(pool)

	// Initialize Redis stores and job queues
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	paymentQueue := redisStorage.NewQueue(rdb, domain.PaymentQueue)
	refundQueue := redisStorage.NewQueue(rdb, domain.RefundQueue)
	webhookQueue := redisStorage.NewQueue(rdb, domain.WebhookQueue)

	// Settlement outcome strategy: deterministic in test mode, randomized
	// method-dependent probabilities otherwise.
	var outcome ports.OutcomeDecider
	if cfg.Worker.TestMode {
		outcome = &worker.FixedOutcome{
			Success: cfg.Worker.TestPaymentSuccess,
			Delay:   cfg.Worker.TestDelay,
		}
	} else {
		outcome = worker.NewRandomOutcome()
	}

	// Initialize business services
	orderSvc := service.NewOrderService(orderRepo, log)
	paymentSvc := service.NewPaymentService(
		paymentRepo,
		orderRepo,
		idempotencyRepo,
		idempotencyCache,
		paymentQueue,
		outcome,
		log,
	)
	refundSvc := service.NewRefundService(refundRepo, paymentRepo, refundQueue, outcome, log)
	webhookSvc := service.NewWebhookService(webhookRepo, webhookQueue, log)
	merchantSvc := service.NewMerchantService(merchantRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		OrderSvc:       orderSvc,
		PaymentSvc:     paymentSvc,
		RefundSvc:      refundSvc,
		MerchantSvc:    merchantSvc,
		WebhookSvc:     webhookSvc,
		MerchantRepo:   merchantRepo,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Queues:         []ports.Queue{paymentQueue, refundQueue, webhookQueue},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
