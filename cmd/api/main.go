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

	"payflow/config"
	"payflow/internal/adapter/client"
	httpHandler "payflow/internal/adapter/http/handler"
	"payflow/internal/adapter/queue/rabbitmq"
	pgStorage "payflow/internal/adapter/storage/postgres"
	redisStorage "payflow/internal/adapter/storage/redis"
	"payflow/internal/core/ports"
	"payflow/internal/metrics"
	"payflow/internal/resilience"
	"payflow/internal/service"
	"payflow/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("payflow", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting PayFlow transaction pipeline")

	ctx := context.Background()

	maxAmount := decimal.Zero
	if cfg.Transfer.MaxAmount != "" {
		maxAmount, err = decimal.NewFromString(cfg.Transfer.MaxAmount)
		if err != nil {
			log.Fatal().Err(err).Str("max_amount", cfg.Transfer.MaxAmount).Msg("Invalid transfer cap")
		}
	}

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	if err := pgStorage.InitSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize RabbitMQ: topology is declared on connect, dedicated
	// channels for consuming and inspection keep prefetch settings and
	// passive declares away from the publishers.
	mq, err := rabbitmq.NewClient(cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer mq.Close()
	consumerCh, err := mq.NewChannel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open consumer channel")
	}
	inspectorCh, err := mq.NewChannel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open inspector channel")
	}
	log.Info().Msg("RabbitMQ connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyStore := redisStorage.NewIdempotencyStore(rdb)
	balanceCache := redisStorage.NewBalanceCache(rdb)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize queue adapters
	transferPub := rabbitmq.NewTransferPublisher(mq.Channel(), log)
	notificationPub := rabbitmq.NewNotificationPublisher(mq.Channel(), log)
	inspector := rabbitmq.NewInspector(inspectorCh)

	// Initialize resilience layer
	breaker := resilience.NewBreakerManager(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		CallTimeout:      cfg.Breaker.CallTimeout,
	}, log)
	breaker.OnStateChange(m.SetBreakerState)

	retryPolicy := resilience.DefaultRetryPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		retryPolicy = resilience.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		}
	}

	// Initialize business services
	walletClient := client.NewWalletClient(cfg.Wallet.BaseURL, cfg.Wallet.Timeout, log)
	ledgerSvc := service.NewLedgerService(accountRepo, balanceCache, transactor, maxAmount, log)
	guard := service.NewIdempotencyGuard(idempotencyStore, 0, log)
	intakeSvc := service.NewIntakeService(txRepo, transferPub, guard, maxAmount, log)
	processor := service.NewTransactionProcessor(
		txRepo,
		walletClient,
		breaker,
		retryPolicy,
		notificationPub,
		m,
		cfg.Processor.MaxRetries,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)
	mqHealth := rabbitmq.NewHealthCheck(mq)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		IntakeSvc:      intakeSvc,
		LedgerSvc:      ledgerSvc,
		TxRepo:         txRepo,
		Inspector:      inspector,
		Breaker:        breaker,
		Metrics:        m,
		Gatherer:       registry,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth, mqHealth},
		Logger:         log,
	})

	// Background workers stop when runCtx is cancelled during shutdown.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	consumer := rabbitmq.NewTransferConsumer(consumerCh, transferPub, cfg.Processor.Workers, log)
	handler := service.HandlerWithTimeout(processor, cfg.Processor.MessageTimeout)
	go func() {
		if err := consumer.Consume(runCtx, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Consumer stopped")
		}
	}()

	poller := metrics.NewQueueDepthPoller(inspector, m, []string{
		rabbitmq.QueueTransfers,
		rabbitmq.QueueTransfersRetry,
		rabbitmq.QueueTransfersDLQ,
	}, 0, log)
	go poller.Run(runCtx)

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
	log.Info().Msg("Shutting down...")

	// Stop intake first, then drain the consumer.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()

	log.Info().Msg("Server exited")
}
