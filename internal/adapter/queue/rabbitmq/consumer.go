package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"payflow/internal/core/domain"
	"payflow/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// TransferConsumer pulls deliveries off the main queue and applies exactly
// one terminal disposition per message:
//
//	OutcomeAck         ack
//	OutcomeRetry       republish to the holding queue with retry count+1, then ack
//	OutcomeDeadLetter  reject without requeue, the broker routes to the DLQ
//
// Prefetch equals the worker count, so at most workers messages are
// unacknowledged at a time.
type TransferConsumer struct {
	ch        Channel
	publisher ports.TransferPublisher
	workers   int
	log       zerolog.Logger
}

func NewTransferConsumer(ch Channel, publisher ports.TransferPublisher, workers int, log zerolog.Logger) *TransferConsumer {
	if workers < 1 {
		workers = 1
	}
	return &TransferConsumer{ch: ch, publisher: publisher, workers: workers, log: log}
}

// Consume blocks until ctx is cancelled or the delivery stream closes.
// In-flight handlers finish before Consume returns; unacknowledged messages
// left behind on an abrupt exit are redelivered by the broker.
func (c *TransferConsumer) Consume(ctx context.Context, handler ports.TransferHandler) error {
	if err := c.ch.Qos(c.workers, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := c.ch.Consume(QueueTransfers, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	c.log.Info().Int("workers", c.workers).Str("queue", QueueTransfers).Msg("consumer started")

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.workers)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				wg.Wait()
				return fmt.Errorf("delivery channel closed")
			}

			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				c.process(ctx, handler, d)
			}(d)
		}
	}
}

func (c *TransferConsumer) process(ctx context.Context, handler ports.TransferHandler, d amqp.Delivery) {
	var msg domain.TransferMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.log.Error().Err(err).Msg("undecodable transfer message, dead-lettering")
		c.dispose(d, domain.OutcomeDeadLetter, msg, 0)
		return
	}

	attempt := retryCount(d.Headers)
	outcome := handler.Handle(ctx, domain.Delivery{Message: msg, Attempt: attempt})
	c.dispose(d, outcome, msg, attempt)
}

func (c *TransferConsumer) dispose(d amqp.Delivery, outcome domain.Outcome, msg domain.TransferMessage, attempt int) {
	switch outcome {
	case domain.OutcomeAck:
		if err := d.Ack(false); err != nil {
			c.log.Error().Err(err).Str("transaction_id", msg.ID.String()).Msg("failed to ack delivery")
		}

	case domain.OutcomeRetry:
		// Republish first. If the holding queue is unreachable the original
		// stays unacked and the broker redelivers it.
		if err := c.publisher.PublishRetry(context.Background(), msg, attempt+1); err != nil {
			c.log.Error().Err(err).Str("transaction_id", msg.ID.String()).Msg("failed to publish retry, requeueing")
			if nackErr := d.Nack(false, true); nackErr != nil {
				c.log.Error().Err(nackErr).Msg("failed to nack delivery")
			}
			return
		}
		if err := d.Ack(false); err != nil {
			c.log.Error().Err(err).Str("transaction_id", msg.ID.String()).Msg("failed to ack after retry publish")
		}

	case domain.OutcomeDeadLetter:
		if err := d.Nack(false, false); err != nil {
			c.log.Error().Err(err).Str("transaction_id", msg.ID.String()).Msg("failed to dead-letter delivery")
		}

	default:
		c.log.Error().Str("outcome", outcome.String()).Msg("unknown outcome, dead-lettering")
		if err := d.Nack(false, false); err != nil {
			c.log.Error().Err(err).Msg("failed to nack delivery")
		}
	}
}
