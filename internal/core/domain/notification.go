package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotificationType identifies the notification event emitted per terminal
// transaction outcome.
type NotificationType string

const (
	NotificationTransferSent     NotificationType = "TRANSFER_SENT"
	NotificationTransferReceived NotificationType = "TRANSFER_RECEIVED"
	NotificationTransferFailed   NotificationType = "TRANSFER_FAILED"
)

// Notification is the fire-and-forget event published for the notification
// subsystem after a transaction reaches a terminal state.
type Notification struct {
	UserID        string           `json:"user_id"`
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	TransactionID uuid.UUID        `json:"transaction_id"`
	Amount        decimal.Decimal  `json:"amount"`
	OtherParty    string           `json:"other_party,omitempty"`
	Reason        *string          `json:"reason,omitempty"`
}

// SentNotification builds the debit-side event for a completed transfer.
func SentNotification(tx *Transaction) Notification {
	return Notification{
		UserID:        tx.SourceID,
		Type:          NotificationTransferSent,
		Message:       fmt.Sprintf("Sent %s to %s", tx.Amount.StringFixed(2), tx.DestinationID),
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		OtherParty:    tx.DestinationID,
	}
}

// ReceivedNotification builds the credit-side event for a completed transfer.
func ReceivedNotification(tx *Transaction) Notification {
	return Notification{
		UserID:        tx.DestinationID,
		Type:          NotificationTransferReceived,
		Message:       fmt.Sprintf("Received %s from %s", tx.Amount.StringFixed(2), tx.SourceID),
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		OtherParty:    tx.SourceID,
	}
}

// FailedNotification builds the event for a failed transfer.
func FailedNotification(tx *Transaction, reason string) Notification {
	return Notification{
		UserID:        tx.SourceID,
		Type:          NotificationTransferFailed,
		Message:       fmt.Sprintf("Transfer failed: %s", reason),
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		OtherParty:    tx.DestinationID,
		Reason:        &reason,
	}
}
