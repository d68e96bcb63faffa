package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"payflow/internal/core/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel records declarations and publications in memory.
type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string // name -> kind
	queues     map[string]amqp.Table
	bindings   map[string]string // queue -> exchange
	published  []publication
	publishErr error
	deliveries chan amqp.Delivery
	consumeErr error
	qosCount   int
	depths     map[string]int
}

type publication struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		exchanges: make(map[string]string),
		queues:    make(map[string]amqp.Table),
		bindings:  make(map[string]string),
		depths:    make(map[string]int),
	}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	depth, ok := f.depths[name]
	if !ok {
		return amqp.Queue{}, errors.New("queue not found")
	}
	return amqp.Queue{Name: name, Messages: depth}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings[name] = exchange
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publication{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	return f.deliveries, nil
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.qosCount = prefetchCount
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) publications() []publication {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publication, len(f.published))
	copy(out, f.published)
	return out
}

// fakeAcknowledger records the disposition applied to a delivery.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) snapshot() (int, int, []bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acks, a.nacks, append([]bool(nil), a.requeue...)
}

func newTestMessage() domain.TransferMessage {
	return domain.TransferMessage{
		ID:            uuid.New(),
		SourceID:      "acc_1",
		DestinationID: "acc_2",
		Amount:        decimal.NewFromFloat(25.50),
	}
}

func TestDeclareTopology(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, DeclareTopology(ch, 30*time.Second))

	assert.Equal(t, "direct", ch.exchanges[ExchangeDLX])
	assert.Equal(t, ExchangeDLX, ch.bindings[QueueTransfersDLQ])

	mainArgs := ch.queues[QueueTransfers]
	assert.Equal(t, ExchangeDLX, mainArgs["x-dead-letter-exchange"])
	assert.Equal(t, QueueTransfersDLQ, mainArgs["x-dead-letter-routing-key"])

	retryArgs := ch.queues[QueueTransfersRetry]
	assert.Equal(t, int64(30000), retryArgs["x-message-ttl"])
	assert.Equal(t, "", retryArgs["x-dead-letter-exchange"])
	assert.Equal(t, QueueTransfers, retryArgs["x-dead-letter-routing-key"])

	assert.Contains(t, ch.queues, QueueTransfersDLQ)
	assert.Contains(t, ch.queues, QueueNotifications)
}

func TestDeclareTopology_DefaultRetryDelay(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, DeclareTopology(ch, 0))
	assert.Equal(t, int64(30000), ch.queues[QueueTransfersRetry]["x-message-ttl"])
}

func TestTransferPublisher_Publish(t *testing.T) {
	ch := newFakeChannel()
	pub := NewTransferPublisher(ch, zerolog.Nop())
	msg := newTestMessage()

	require.NoError(t, pub.Publish(context.Background(), msg))

	pubs := ch.publications()
	require.Len(t, pubs, 1)
	assert.Equal(t, "", pubs[0].exchange)
	assert.Equal(t, QueueTransfers, pubs[0].key)
	assert.Equal(t, uint8(amqp.Persistent), pubs[0].msg.DeliveryMode)
	assert.Equal(t, "application/json", pubs[0].msg.ContentType)
	assert.Equal(t, int32(0), pubs[0].msg.Headers[retryCountHeader])
	assert.Equal(t, msg.ID.String(), pubs[0].msg.MessageId)

	var decoded domain.TransferMessage
	require.NoError(t, json.Unmarshal(pubs[0].msg.Body, &decoded))
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.SourceID, decoded.SourceID)
	assert.Equal(t, msg.DestinationID, decoded.DestinationID)
	assert.True(t, msg.Amount.Equal(decoded.Amount))
}

func TestTransferPublisher_PublishRetry(t *testing.T) {
	ch := newFakeChannel()
	pub := NewTransferPublisher(ch, zerolog.Nop())

	require.NoError(t, pub.PublishRetry(context.Background(), newTestMessage(), 2))

	pubs := ch.publications()
	require.Len(t, pubs, 1)
	assert.Equal(t, QueueTransfersRetry, pubs[0].key)
	assert.Equal(t, int32(2), pubs[0].msg.Headers[retryCountHeader])
}

func TestTransferPublisher_PublishError(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("channel closed")
	pub := NewTransferPublisher(ch, zerolog.Nop())

	err := pub.Publish(context.Background(), newTestMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish")
}

func TestNotificationPublisher_Publish(t *testing.T) {
	ch := newFakeChannel()
	pub := NewNotificationPublisher(ch, zerolog.Nop())

	tx := &domain.Transaction{ID: uuid.New(), SourceID: "acc_1", DestinationID: "acc_2", Amount: decimal.NewFromInt(10)}
	require.NoError(t, pub.Publish(context.Background(), domain.SentNotification(tx)))

	pubs := ch.publications()
	require.Len(t, pubs, 1)
	assert.Equal(t, QueueNotifications, pubs[0].key)

	var decoded domain.Notification
	require.NoError(t, json.Unmarshal(pubs[0].msg.Body, &decoded))
	assert.Equal(t, domain.NotificationTransferSent, decoded.Type)
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, retryCount(nil))
	assert.Equal(t, 0, retryCount(amqp.Table{}))
	assert.Equal(t, 2, retryCount(amqp.Table{retryCountHeader: int32(2)}))
	assert.Equal(t, 3, retryCount(amqp.Table{retryCountHeader: int64(3)}))
	assert.Equal(t, 0, retryCount(amqp.Table{retryCountHeader: "bogus"}))
}

// handlerFunc adapts a function to the TransferHandler interface.
type handlerFunc func(ctx context.Context, d domain.Delivery) domain.Outcome

func (f handlerFunc) Handle(ctx context.Context, d domain.Delivery) domain.Outcome {
	return f(ctx, d)
}

// runConsumer feeds deliveries through a consumer and waits for it to drain.
func runConsumer(t *testing.T, ch *fakeChannel, pub *TransferPublisher, handler handlerFunc, deliveries ...amqp.Delivery) {
	t.Helper()

	ch.deliveries = make(chan amqp.Delivery, len(deliveries))
	for _, d := range deliveries {
		ch.deliveries <- d
	}
	close(ch.deliveries)

	consumer := NewTransferConsumer(ch, pub, 2, zerolog.Nop())
	err := consumer.Consume(context.Background(), handler)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery channel closed")
}

func TestTransferConsumer_AckOutcome(t *testing.T) {
	ch := newFakeChannel()
	ack := &fakeAcknowledger{}
	msg := newTestMessage()
	body, _ := json.Marshal(msg)

	var got domain.Delivery
	runConsumer(t, ch, NewTransferPublisher(ch, zerolog.Nop()), func(ctx context.Context, d domain.Delivery) domain.Outcome {
		got = d
		return domain.OutcomeAck
	}, amqp.Delivery{Acknowledger: ack, Body: body, Headers: amqp.Table{retryCountHeader: int32(1)}})

	acks, nacks, _ := ack.snapshot()
	assert.Equal(t, 1, acks)
	assert.Equal(t, 0, nacks)
	assert.Equal(t, msg.ID, got.Message.ID)
	assert.Equal(t, 1, got.Attempt)
}

func TestTransferConsumer_RetryOutcome(t *testing.T) {
	ch := newFakeChannel()
	ack := &fakeAcknowledger{}
	msg := newTestMessage()
	body, _ := json.Marshal(msg)

	runConsumer(t, ch, NewTransferPublisher(ch, zerolog.Nop()), func(ctx context.Context, d domain.Delivery) domain.Outcome {
		return domain.OutcomeRetry
	}, amqp.Delivery{Acknowledger: ack, Body: body, Headers: amqp.Table{retryCountHeader: int32(1)}})

	// Republished to the holding queue with the counter bumped, then acked.
	pubs := ch.publications()
	require.Len(t, pubs, 1)
	assert.Equal(t, QueueTransfersRetry, pubs[0].key)
	assert.Equal(t, int32(2), pubs[0].msg.Headers[retryCountHeader])

	acks, nacks, _ := ack.snapshot()
	assert.Equal(t, 1, acks)
	assert.Equal(t, 0, nacks)
}

func TestTransferConsumer_RetryPublishFailureRequeues(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("broker gone")
	ack := &fakeAcknowledger{}
	body, _ := json.Marshal(newTestMessage())

	runConsumer(t, ch, NewTransferPublisher(ch, zerolog.Nop()), func(ctx context.Context, d domain.Delivery) domain.Outcome {
		return domain.OutcomeRetry
	}, amqp.Delivery{Acknowledger: ack, Body: body})

	acks, nacks, requeue := ack.snapshot()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	require.Len(t, requeue, 1)
	assert.True(t, requeue[0])
}

func TestTransferConsumer_DeadLetterOutcome(t *testing.T) {
	ch := newFakeChannel()
	ack := &fakeAcknowledger{}
	body, _ := json.Marshal(newTestMessage())

	runConsumer(t, ch, NewTransferPublisher(ch, zerolog.Nop()), func(ctx context.Context, d domain.Delivery) domain.Outcome {
		return domain.OutcomeDeadLetter
	}, amqp.Delivery{Acknowledger: ack, Body: body})

	acks, nacks, requeue := ack.snapshot()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	require.Len(t, requeue, 1)
	assert.False(t, requeue[0])
}

func TestTransferConsumer_UndecodableBodyDeadLetters(t *testing.T) {
	ch := newFakeChannel()
	ack := &fakeAcknowledger{}

	called := false
	runConsumer(t, ch, NewTransferPublisher(ch, zerolog.Nop()), func(ctx context.Context, d domain.Delivery) domain.Outcome {
		called = true
		return domain.OutcomeAck
	}, amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.False(t, called)
	acks, nacks, requeue := ack.snapshot()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	require.Len(t, requeue, 1)
	assert.False(t, requeue[0])
}

func TestTransferConsumer_SetsPrefetchToWorkers(t *testing.T) {
	ch := newFakeChannel()
	ch.deliveries = make(chan amqp.Delivery)
	close(ch.deliveries)

	consumer := NewTransferConsumer(ch, NewTransferPublisher(ch, zerolog.Nop()), 7, zerolog.Nop())
	_ = consumer.Consume(context.Background(), handlerFunc(func(ctx context.Context, d domain.Delivery) domain.Outcome {
		return domain.OutcomeAck
	}))
	assert.Equal(t, 7, ch.qosCount)
}

func TestTransferConsumer_ContextCancellation(t *testing.T) {
	ch := newFakeChannel()
	ch.deliveries = make(chan amqp.Delivery)

	ctx, cancel := context.WithCancel(context.Background())
	consumer := NewTransferConsumer(ch, NewTransferPublisher(ch, zerolog.Nop()), 1, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, handlerFunc(func(ctx context.Context, d domain.Delivery) domain.Outcome {
			return domain.OutcomeAck
		}))
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on context cancellation")
	}
}

func TestInspector_Depth(t *testing.T) {
	ch := newFakeChannel()
	ch.depths[QueueTransfers] = 42

	insp := NewInspector(ch)
	depth, err := insp.Depth(context.Background(), QueueTransfers)
	require.NoError(t, err)
	assert.Equal(t, 42, depth)

	_, err = insp.Depth(context.Background(), "missing")
	require.Error(t, err)
}
