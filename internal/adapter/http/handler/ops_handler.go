package handler

import (
	"net/http"

	"payflow/internal/adapter/queue/rabbitmq"
	"payflow/internal/core/domain"
	"payflow/internal/core/ports"
	"payflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthCheck runs every registered dependency probe and reports the
// aggregate status. Any failing dependency degrades the endpoint to 503.
// When inspector or breaker are non-nil the payload also carries queue
// depths and circuit state; those are informational and never degrade
// the endpoint.
func HealthCheck(inspector ports.QueueInspector, breaker ports.BreakerProbe, checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		payload := gin.H{
			"status":       status,
			"dependencies": deps,
		}

		if inspector != nil {
			queues := gin.H{}
			for _, q := range []string{rabbitmq.QueueTransfers, rabbitmq.QueueTransfersDLQ} {
				if depth, err := inspector.Depth(c.Request.Context(), q); err == nil {
					queues[q] = depth
				}
			}
			payload["queues"] = queues
		}
		if breaker != nil {
			payload["breaker"] = gin.H{"wallet": breaker.State("wallet")}
		}

		c.JSON(httpCode, payload)
	}
}

// OpsHandler serves the operational surface: dead letter inspection and
// pipeline statistics.
type OpsHandler struct {
	txRepo    ports.TransactionRepository
	inspector ports.QueueInspector
	breaker   ports.BreakerProbe
	log       zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(
	txRepo ports.TransactionRepository,
	inspector ports.QueueInspector,
	breaker ports.BreakerProbe,
	log zerolog.Logger,
) *OpsHandler {
	return &OpsHandler{txRepo: txRepo, inspector: inspector, breaker: breaker, log: log}
}

// DeadLetterStats handles GET /admin/dlq. A non-zero depth means deliveries
// exhausted their retries and are waiting for operator intervention.
func (h *OpsHandler) DeadLetterStats(c *gin.Context) {
	depth, err := h.inspector.Depth(c.Request.Context(), rabbitmq.QueueTransfersDLQ)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to inspect dead letter queue")
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"queue": rabbitmq.QueueTransfersDLQ,
		"depth": depth,
	})
}

// PipelineStats handles GET /admin/stats: transaction counts per status,
// live queue depths and circuit breaker state.
func (h *OpsHandler) PipelineStats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.txRepo.CountByStatus(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	statuses := gin.H{}
	for _, s := range []domain.TransactionStatus{
		domain.TransactionStatusPending,
		domain.TransactionStatusProcessing,
		domain.TransactionStatusCompleted,
		domain.TransactionStatusFailed,
	} {
		statuses[string(s)] = counts[s]
	}

	queues := gin.H{}
	for _, q := range []string{rabbitmq.QueueTransfers, rabbitmq.QueueTransfersRetry, rabbitmq.QueueTransfersDLQ} {
		depth, err := h.inspector.Depth(ctx, q)
		if err != nil {
			h.log.Warn().Err(err).Str("queue", q).Msg("queue depth unavailable")
			continue
		}
		queues[q] = depth
	}

	response.OK(c, gin.H{
		"transactions": statuses,
		"queues":       queues,
		"breaker":      gin.H{"wallet": h.breaker.State("wallet")},
	})
}
