package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferMessage is the queue wire envelope around a transaction. The
// delivery-attempt counter travels in message headers, not the body, so a
// retried message carries the same payload bytes as the original.
type TransferMessage struct {
	ID            uuid.UUID       `json:"id"`
	SourceID      string          `json:"source_id"`
	DestinationID string          `json:"destination_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// Delivery pairs a decoded message with its delivery metadata.
type Delivery struct {
	Message TransferMessage
	Attempt int // prior retry count, 0 on first delivery
}

// Outcome is the single terminal disposition of a delivered message.
// Exactly one of these is applied per delivery.
type Outcome int

const (
	// OutcomeAck removes the message from the queue.
	OutcomeAck Outcome = iota
	// OutcomeRetry republishes to the retry sub-queue with an incremented
	// attempt counter, then removes the original.
	OutcomeRetry
	// OutcomeDeadLetter rejects without requeueing, routing to the DLQ.
	OutcomeDeadLetter
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeRetry:
		return "retry"
	case OutcomeDeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}
