package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"payment-gateway/config"
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
		Int("concurrency", cfg.Worker.Concurrency).
		Bool("test_mode", cfg.Worker.TestMode).
		Str("retry_profile", cfg.Webhook.RetryProfile).
		Msg("Starting Payment Gateway worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	webhookRepo := pgStorage.NewWebhookLogRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize job queues
	paymentQueue := redisStorage.NewQueue(rdb, domain.PaymentQueue)
	refundQueue := redisStorage.NewQueue(rdb, domain.RefundQueue)
	webhookQueue := redisStorage.NewQueue(rdb, domain.WebhookQueue)

	// Settlement outcome strategy
	var outcome ports.OutcomeDecider
	if cfg.Worker.TestMode {
		outcome = &worker.FixedOutcome{
			Success: cfg.Worker.TestPaymentSuccess,
			Delay:   cfg.Worker.TestDelay,
		}
	} else {
		outcome = worker.NewRandomOutcome()
	}

	// Processors
	paymentProc := worker.NewPaymentProcessor(paymentRepo, webhookQueue, outcome, log)
	refundProc := worker.NewRefundProcessor(refundRepo, paymentRepo, transactor, webhookQueue, log)
	dispatcher := worker.NewDispatcher(
		merchantRepo,
		webhookRepo,
		service.NewHMACSignatureService(),
		webhookQueue,
		worker.NewBackoff(cfg.Webhook.RetryProfile),
		cfg.Webhook.Timeout,
		log,
	)

	// Runners: one consumer pool per queue.
	runners := []*worker.Runner{
		worker.NewRunner(paymentQueue, paymentProc.Process, cfg.Worker.Concurrency, log),
		worker.NewRunner(refundQueue, refundProc.Process, cfg.Worker.Concurrency, log),
		worker.NewRunner(webhookQueue, dispatcher.Process, cfg.Worker.Concurrency, log),
	}

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r *worker.Runner) {
			defer wg.Done()
			r.Run(ctx)
		}(r)
	}
	log.Info().Msg("Workers running")

	// Graceful shutdown: stop dequeueing, let in-flight jobs finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down workers...")
	cancel()
	wg.Wait()

	log.Info().Msg("Workers exited")
}
