package handler

import (
	"strconv"

	"payflow/internal/adapter/http/dto"
	"payflow/internal/core/domain"
	"payflow/internal/core/ports"
	"payflow/pkg/apperror"
	"payflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey is the optional client-supplied deduplication token.
const HeaderIdempotencyKey = "Idempotency-Key"

// TransactionHandler handles transfer intake and status queries.
type TransactionHandler struct {
	intakeSvc ports.IntakeService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(intakeSvc ports.IntakeService) *TransactionHandler {
	return &TransactionHandler{intakeSvc: intakeSvc}
}

// CreateTransfer handles POST /api/v1/transfers. The transfer is accepted
// and queued; the terminal outcome arrives asynchronously and is visible
// via GET /api/v1/transfers/:id.
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.intakeSvc.CreateTransfer(c.Request.Context(), ports.CreateTransferRequest{
		SourceID:       req.SourceAccountID,
		DestinationID:  req.DestinationAccountID,
		Amount:         req.Amount,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.CreateTransferResponse{
		ID:     result.ID.String(),
		Status: string(result.Status),
	}
	if result.FromCache {
		response.OK(c, resp)
		return
	}
	response.Accepted(c, resp)
}

// GetTransfer handles GET /api/v1/transfers/:id.
func (h *TransactionHandler) GetTransfer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	tx, err := h.intakeSvc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(tx))
}

// ListTransfers handles GET /api/v1/transfers with optional account_id,
// status and limit query parameters.
func (h *TransactionHandler) ListTransfers(c *gin.Context) {
	params := ports.TransactionListParams{
		UserID: c.Query("account_id"),
		Limit:  50,
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.TransactionStatus(raw)
		switch status {
		case domain.TransactionStatusPending, domain.TransactionStatusProcessing,
			domain.TransactionStatusCompleted, domain.TransactionStatusFailed:
			params.Status = &status
		default:
			response.Error(c, apperror.Validation("invalid status filter"))
			return
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			response.Error(c, apperror.Validation("limit must be between 1 and 100"))
			return
		}
		params.Limit = limit
	}

	txs, err := h.intakeSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, dto.FromTransaction(&txs[i]))
	}
	response.OK(c, gin.H{"transactions": items, "count": len(items)})
}
