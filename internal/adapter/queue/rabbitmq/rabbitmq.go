package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"payflow/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Queue and exchange names. Messages publish through the default exchange
// with the queue name as routing key; only dead-lettering uses a named
// exchange.
const (
	ExchangeDLX = "dlx"

	QueueTransfers      = "transfers"
	QueueTransfersRetry = "transfers.retry"
	QueueTransfersDLQ   = "transfers.dlq"
	QueueNotifications  = "notifications"
)

// Channel is the subset of *amqp.Channel the adapter uses. Kept as an
// interface so publisher and consumer behavior is testable without a broker.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

// Client owns the broker connection and a channel with the transfer
// topology declared.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  zerolog.Logger
}

// NewClient dials the broker and declares the transfer topology.
func NewClient(cfg config.RabbitMQConfig, log zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareTopology(ch, cfg.RetryDelay); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Dur("retry_delay", cfg.RetryDelay).
		Msg("connected to rabbitmq")

	return &Client{conn: conn, ch: ch, log: log}, nil
}

// DeclareTopology declares the durable transfer queues:
//
//	transfers        main work queue, dead-letters into dlx -> transfers.dlq
//	transfers.retry  holding queue, expires messages back onto transfers
//	transfers.dlq    terminal parking for poison messages
//	notifications    event fan-out for user-facing notifications
//
// retryDelay is the holding time before a retried message re-enters the
// main queue.
func DeclareTopology(ch Channel, retryDelay time.Duration) error {
	if retryDelay <= 0 {
		retryDelay = 30 * time.Second
	}

	if err := ch.ExchangeDeclare(ExchangeDLX, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", ExchangeDLX, err)
	}

	if _, err := ch.QueueDeclare(QueueTransfersDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueTransfersDLQ, err)
	}
	if err := ch.QueueBind(QueueTransfersDLQ, QueueTransfersDLQ, ExchangeDLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", QueueTransfersDLQ, err)
	}

	if _, err := ch.QueueDeclare(QueueTransfers, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": QueueTransfersDLQ,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueTransfers, err)
	}

	// Expired messages re-enter the main queue through the default exchange.
	if _, err := ch.QueueDeclare(QueueTransfersRetry, true, false, false, false, amqp.Table{
		"x-message-ttl":             retryDelay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": QueueTransfers,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueTransfersRetry, err)
	}

	if _, err := ch.QueueDeclare(QueueNotifications, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueNotifications, err)
	}

	return nil
}

// Channel returns the declared channel.
func (c *Client) Channel() Channel {
	return c.ch
}

// NewChannel opens an additional channel on the shared connection. The
// consumer runs on its own channel so prefetch limits do not apply to
// publishers.
func (c *Client) NewChannel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

// Close releases the channel and connection.
func (c *Client) Close() {
	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close rabbitmq channel")
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close rabbitmq connection")
		}
	}
	c.log.Info().Msg("rabbitmq connection closed")
}

// HealthCheck reports broker liveness for the health endpoint.
type HealthCheck struct {
	client *Client
}

func NewHealthCheck(client *Client) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Name() string { return "rabbitmq" }

func (h *HealthCheck) Ping(ctx context.Context) error {
	if h.client == nil || h.client.conn == nil || h.client.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}
