package handler

import (
	"errors"
	"net/http"

	"payflow/internal/adapter/http/dto"
	"payflow/internal/core/ports"
	"payflow/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// WalletHandler serves the internal balance mutation endpoint the
// transaction processor calls. Its error envelope is a flat
// {"error": {"code", "message"}} shape rather than the public API
// envelope, because the processor-side client classifies failures by
// code and HTTP status alone.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// Transfer handles POST /internal/wallets/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req dto.WalletTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		walletError(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.ledgerSvc.Transfer(c.Request.Context(), req.SourceID, req.DestinationID, req.Amount); err != nil {
		walletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func walletError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{
			"error": gin.H{"code": appErr.Code, "message": appErr.Message},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"code": "SYS_001", "message": "Internal server error"},
	})
}
