package dto

import (
	"github.com/shopspring/decimal"

	"payflow/internal/core/domain"
)

// CreateTransferRequest is the request body for transfer creation.
type CreateTransferRequest struct {
	SourceAccountID      string          `json:"source_account_id" binding:"required,safe_id,max=64"`
	DestinationAccountID string          `json:"destination_account_id" binding:"required,safe_id,max=64"`
	Amount               decimal.Decimal `json:"amount" binding:"required"`
}

// CreateTransferResponse is returned by the intake endpoint. Status is
// PENDING on first acceptance; replays of the same idempotency key return
// the originally recorded id and status.
type CreateTransferResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// TransactionResponse is the full status record for a transfer.
type TransactionResponse struct {
	ID                   string  `json:"id"`
	SourceAccountID      string  `json:"source_account_id"`
	DestinationAccountID string  `json:"destination_account_id"`
	Amount               string  `json:"amount"`
	Status               string  `json:"status"`
	ErrorMessage         *string `json:"error_message,omitempty"`
	CreatedAt            string  `json:"created_at"`
	ProcessingStartedAt  *string `json:"processing_started_at,omitempty"`
	CompletedAt          *string `json:"completed_at,omitempty"`
}

// FromTransaction converts a domain transaction to its wire form.
func FromTransaction(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                   tx.ID.String(),
		SourceAccountID:      tx.SourceID,
		DestinationAccountID: tx.DestinationID,
		Amount:               tx.Amount.String(),
		Status:               string(tx.Status),
		ErrorMessage:         tx.ErrorMessage,
		CreatedAt:            tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if tx.ProcessingStartedAt != nil {
		s := tx.ProcessingStartedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessingStartedAt = &s
	}
	if tx.CompletedAt != nil {
		s := tx.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.CompletedAt = &s
	}
	return resp
}

// CreateAccountRequest is the request body for account creation.
type CreateAccountRequest struct {
	ID             string          `json:"id" binding:"required,safe_id,max=64"`
	Name           string          `json:"name" binding:"required,max=100"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountResponse is the wire form of an account.
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

// FromAccount converts a domain account to its wire form.
func FromAccount(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   a.Balance.String(),
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// WalletTransferRequest is the request body for the internal balance
// mutation endpoint consumed by the transaction processor.
type WalletTransferRequest struct {
	SourceID      string          `json:"source_id" binding:"required,safe_id,max=64"`
	DestinationID string          `json:"destination_id" binding:"required,safe_id,max=64"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}
