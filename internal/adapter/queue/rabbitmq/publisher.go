package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"payflow/internal/core/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// retryCountHeader carries the number of prior retries. The payload bytes
// stay identical across redeliveries; only this header changes.
const retryCountHeader = "x-retry-count"

// TransferPublisher publishes transfer messages as persistent JSON through
// the default exchange.
type TransferPublisher struct {
	ch  Channel
	log zerolog.Logger
}

func NewTransferPublisher(ch Channel, log zerolog.Logger) *TransferPublisher {
	return &TransferPublisher{ch: ch, log: log}
}

// Publish enqueues a first-delivery transfer message on the main queue.
func (p *TransferPublisher) Publish(ctx context.Context, msg domain.TransferMessage) error {
	return p.publish(ctx, QueueTransfers, msg, 0)
}

// PublishRetry enqueues the message on the holding queue with the retry
// counter set to attempt. The broker moves it back to the main queue after
// the holding time expires.
func (p *TransferPublisher) PublishRetry(ctx context.Context, msg domain.TransferMessage, attempt int) error {
	return p.publish(ctx, QueueTransfersRetry, msg, attempt)
}

func (p *TransferPublisher) publish(ctx context.Context, queue string, msg domain.TransferMessage, attempt int) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer message: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Headers:      amqp.Table{retryCountHeader: int32(attempt)},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}

	p.log.Debug().
		Str("transaction_id", msg.ID.String()).
		Str("queue", queue).
		Int("retry_count", attempt).
		Msg("transfer message published")

	return nil
}

// NotificationPublisher emits notification events. Failures are logged and
// returned but never block transfer processing.
type NotificationPublisher struct {
	ch  Channel
	log zerolog.Logger
}

func NewNotificationPublisher(ch Channel, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{ch: ch, log: log}
}

func (p *NotificationPublisher) Publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", QueueNotifications, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// retryCount reads the retry counter from delivery headers. Missing or
// malformed headers count as a first delivery.
func retryCount(headers amqp.Table) int {
	v, ok := headers[retryCountHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
