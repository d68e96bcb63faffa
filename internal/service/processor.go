package service

import (
	"context"
	"errors"
	"time"

	"payflow/internal/core/domain"
	"payflow/internal/core/ports"
	"payflow/internal/metrics"
	"payflow/internal/resilience"
	"payflow/pkg/apperror"

	"github.com/rs/zerolog"
)

// walletService is the circuit breaker key for the downstream wallet call.
const walletService = "wallet"

// TransactionProcessor consumes transfer deliveries and drives each record
// through its lifecycle. Handle returns the delivery's single disposition:
//
//	success                      -> COMPLETED, Ack
//	transient, attempts left     -> stays PROCESSING, Retry
//	transient, attempts spent    -> FAILED, DeadLetter
//	permanent                    -> FAILED, DeadLetter
//
// The downstream call goes through the retry loop with the breaker inside
// it, so an open breaker fails attempts fast instead of hammering a
// degraded dependency.
type TransactionProcessor struct {
	txRepo      ports.TransactionRepository
	executor    ports.TransferExecutor
	breaker     *resilience.BreakerManager
	retryPolicy resilience.RetryPolicy
	notifier    ports.NotificationPublisher
	metrics     *metrics.Metrics
	maxRetries  int
	log         zerolog.Logger
}

// NewTransactionProcessor creates a new TransactionProcessor. maxRetries
// bounds queue-level redeliveries, not in-process attempts.
func NewTransactionProcessor(
	txRepo ports.TransactionRepository,
	executor ports.TransferExecutor,
	breaker *resilience.BreakerManager,
	retryPolicy resilience.RetryPolicy,
	notifier ports.NotificationPublisher,
	m *metrics.Metrics,
	maxRetries int,
	log zerolog.Logger,
) *TransactionProcessor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TransactionProcessor{
		txRepo:      txRepo,
		executor:    executor,
		breaker:     breaker,
		retryPolicy: retryPolicy,
		notifier:    notifier,
		metrics:     m,
		maxRetries:  maxRetries,
		log:         log,
	}
}

// Handle processes one delivery.
func (p *TransactionProcessor) Handle(ctx context.Context, d domain.Delivery) domain.Outcome {
	start := time.Now()
	msg := d.Message
	log := p.log.With().
		Str("transaction_id", msg.ID.String()).
		Int("attempt", d.Attempt).
		Logger()

	if outcome, ok := p.claim(ctx, msg, d.Attempt, log); !ok {
		return outcome
	}

	err := resilience.Retry(ctx, p.retryPolicy, log, func(ctx context.Context) error {
		return p.breaker.Execute(ctx, walletService, func(ctx context.Context) error {
			return p.executor.Transfer(ctx, msg.SourceID, msg.DestinationID, msg.Amount)
		})
	})
	if err == nil {
		return p.complete(ctx, msg, start, log)
	}
	return p.fail(ctx, msg, d.Attempt, err, start, log)
}

// claim moves the record to PROCESSING. A record already in a terminal
// state means this delivery is a duplicate of finished work. Claim
// failures retry like any other transient problem: bounded by the same
// redelivery cap, dead-lettering once the attempt budget is spent.
func (p *TransactionProcessor) claim(ctx context.Context, msg domain.TransferMessage, attempt int, log zerolog.Logger) (domain.Outcome, bool) {
	err := p.txRepo.MarkProcessing(ctx, msg.ID)
	if err == nil {
		return 0, true
	}

	tx, getErr := p.txRepo.GetByID(ctx, msg.ID)
	switch {
	case getErr != nil:
		log.Error().Err(getErr).Msg("failed to look up transaction after claim failure")
		return p.retryClaim(attempt, log), false
	case tx == nil:
		log.Error().Msg("delivery references unknown transaction, dead-lettering")
		return domain.OutcomeDeadLetter, false
	case tx.IsTerminal():
		log.Info().Str("status", string(tx.Status)).Msg("transaction already terminal, dropping duplicate delivery")
		return domain.OutcomeAck, false
	default:
		log.Error().Err(err).Msg("failed to claim transaction")
		return p.retryClaim(attempt, log), false
	}
}

func (p *TransactionProcessor) retryClaim(attempt int, log zerolog.Logger) domain.Outcome {
	if attempt < p.maxRetries {
		log.Warn().Int("max_retries", p.maxRetries).Msg("claim failed, scheduling retry")
		return domain.OutcomeRetry
	}
	log.Error().Int("max_retries", p.maxRetries).Msg("claim retries exhausted, dead-lettering")
	return domain.OutcomeDeadLetter
}

func (p *TransactionProcessor) complete(ctx context.Context, msg domain.TransferMessage, start time.Time, log zerolog.Logger) domain.Outcome {
	if err := p.txRepo.MarkCompleted(ctx, msg.ID); err != nil {
		// The balances already moved. Redelivering would re-run the transfer,
		// so acknowledge and leave the record for reconciliation.
		log.Error().Err(err).Msg("transfer applied but record update failed")
	}

	p.metrics.ObserveTransaction(string(domain.TransactionStatusCompleted), time.Since(start).Seconds())

	tx := &domain.Transaction{
		ID:            msg.ID,
		SourceID:      msg.SourceID,
		DestinationID: msg.DestinationID,
		Amount:        msg.Amount,
	}
	p.notify(ctx, domain.SentNotification(tx), log)
	p.notify(ctx, domain.ReceivedNotification(tx), log)

	log.Info().Dur("elapsed", time.Since(start)).Msg("transfer completed")
	return domain.OutcomeAck
}

func (p *TransactionProcessor) fail(ctx context.Context, msg domain.TransferMessage, attempt int, err error, start time.Time, log zerolog.Logger) domain.Outcome {
	if apperror.IsTransient(err) && attempt < p.maxRetries {
		log.Warn().Err(err).Int("max_retries", p.maxRetries).Msg("transient failure, scheduling retry")
		return domain.OutcomeRetry
	}

	reason := failureReason(err)
	if markErr := p.txRepo.MarkFailed(ctx, msg.ID, reason); markErr != nil {
		log.Error().Err(markErr).Msg("failed to record transaction failure")
	}

	p.metrics.ObserveTransaction(string(domain.TransactionStatusFailed), time.Since(start).Seconds())

	tx := &domain.Transaction{
		ID:            msg.ID,
		SourceID:      msg.SourceID,
		DestinationID: msg.DestinationID,
		Amount:        msg.Amount,
	}
	p.notify(ctx, domain.FailedNotification(tx, reason), log)

	log.Error().Err(err).Str("reason", reason).Msg("transfer failed, dead-lettering")
	return domain.OutcomeDeadLetter
}

// notify publishes a notification without letting a broker hiccup affect
// the delivery's disposition.
func (p *TransactionProcessor) notify(ctx context.Context, n domain.Notification, log zerolog.Logger) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(ctx, n); err != nil {
		log.Warn().Err(err).Str("type", string(n.Type)).Msg("failed to publish notification")
	}
}

// failureReason extracts the user-facing reason from an error chain.
func failureReason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// timeoutHandler bounds each delivery with an end-to-end budget so a stuck
// downstream cannot hold a worker slot indefinitely.
type timeoutHandler struct {
	inner  ports.TransferHandler
	budget time.Duration
}

// HandlerWithTimeout wraps h so every Handle call runs under budget. A
// non-positive budget returns h unchanged.
func HandlerWithTimeout(h ports.TransferHandler, budget time.Duration) ports.TransferHandler {
	if budget <= 0 {
		return h
	}
	return &timeoutHandler{inner: h, budget: budget}
}

func (t *timeoutHandler) Handle(ctx context.Context, d domain.Delivery) domain.Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.budget)
	defer cancel()
	return t.inner.Handle(ctx, d)
}
