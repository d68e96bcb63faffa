package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a transaction.
// Transitions are monotonic: PENDING -> PROCESSING -> COMPLETED | FAILED.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// Transaction is the durable status record for a single transfer request.
// Records are append-only: rows are created at intake and their status
// advances, but they are never deleted.
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	SourceID            string            `json:"source_id"`
	DestinationID       string            `json:"destination_id"`
	Amount              decimal.Decimal   `json:"amount"`
	Status              TransactionStatus `json:"status"`
	ErrorMessage        *string           `json:"error_message,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	ProcessingStartedAt *time.Time        `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// CanTransitionTo reports whether moving to next preserves the monotonic
// lifecycle. Terminal states admit no further transitions.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	switch t.Status {
	case TransactionStatusPending:
		return next == TransactionStatusProcessing
	case TransactionStatusProcessing:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	default:
		return false
	}
}
