package handler

import (
	"payflow/internal/adapter/http/middleware"
	"payflow/internal/core/ports"
	"payflow/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	IntakeSvc      ports.IntakeService
	LedgerSvc      ports.LedgerService
	TxRepo         ports.TransactionRepository
	Inspector      ports.QueueInspector
	Breaker        ports.BreakerProbe
	Metrics        *metrics.Metrics    // nil = HTTP metrics disabled
	Gatherer       prometheus.Gatherer // nil = /metrics disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	if deps.Metrics != nil {
		r.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// Health check (deep — verifies PostgreSQL, Redis and RabbitMQ)
	r.GET("/health", HealthCheck(deps.Inspector, deps.Breaker, deps.HealthCheckers...))

	// Prometheus scrape endpoint
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	txHandler := NewTransactionHandler(deps.IntakeSvc)
	transfers := v1.Group("/transfers")
	{
		transfers.POST("", txHandler.CreateTransfer)
		transfers.GET("", txHandler.ListTransfers)
		transfers.GET("/:id", txHandler.GetTransfer)
	}

	accountHandler := NewAccountHandler(deps.LedgerSvc)
	accounts := v1.Group("/accounts")
	{
		accounts.POST("", accountHandler.CreateAccount)
		accounts.GET("", accountHandler.ListAccounts)
		accounts.GET("/:id", accountHandler.GetAccount)
	}

	// Internal routes (processor-facing, not exposed publicly)
	walletHandler := NewWalletHandler(deps.LedgerSvc)
	r.POST("/internal/wallets/transfer", walletHandler.Transfer)

	// Operational surface
	opsHandler := NewOpsHandler(deps.TxRepo, deps.Inspector, deps.Breaker, deps.Logger)
	admin := r.Group("/admin")
	{
		admin.GET("/dlq", opsHandler.DeadLetterStats)
		admin.GET("/stats", opsHandler.PipelineStats)
	}

	return r
}
