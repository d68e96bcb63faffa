package handler

import (
	"payflow/internal/adapter/http/dto"
	"payflow/internal/core/ports"
	"payflow/pkg/apperror"
	"payflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account management endpoints.
type AccountHandler struct {
	ledgerSvc ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerSvc ports.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerSvc: ledgerSvc}
}

// CreateAccount handles POST /api/v1/accounts.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.ledgerSvc.CreateAccount(c.Request.Context(), req.ID, req.Name, req.Currency, req.InitialBalance)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromAccount(account))
}

// GetAccount handles GET /api/v1/accounts/:id.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.ledgerSvc.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromAccount(account))
}

// ListAccounts handles GET /api/v1/accounts.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.ledgerSvc.ListAccounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, dto.FromAccount(&accounts[i]))
	}
	response.OK(c, gin.H{"accounts": items, "count": len(items)})
}
