package ports

import (
	"context"

	"payflow/internal/core/domain"
)

// TransferPublisher enqueues transfer messages. PublishRetry targets the
// delayed-redelivery sub-queue; the broker returns the message to the main
// queue after a fixed holding time.
type TransferPublisher interface {
	Publish(ctx context.Context, msg domain.TransferMessage) error
	PublishRetry(ctx context.Context, msg domain.TransferMessage, attempt int) error
}

// TransferConsumer drives deliveries through a handler. The handler's
// Outcome decides the single terminal disposition of each message; the
// consumer owns acknowledgement.
type TransferConsumer interface {
	Consume(ctx context.Context, handler TransferHandler) error
}

// TransferHandler processes one delivery and returns its disposition.
type TransferHandler interface {
	Handle(ctx context.Context, delivery domain.Delivery) domain.Outcome
}

// NotificationPublisher emits notification events. Delivery is
// fire-and-forget; the processor never blocks on notification success.
type NotificationPublisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// QueueInspector reports queue depths for the observability surface.
type QueueInspector interface {
	Depth(ctx context.Context, queue string) (int, error)
}
