package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payflow/internal/core/domain"
	"payflow/internal/core/ports"
	"payflow/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// IntakeServiceImpl implements ports.IntakeService: it validates a request,
// records a PENDING transaction and enqueues it for asynchronous processing.
// The caller gets the transaction id back immediately; the terminal outcome
// arrives later through the processor.
type IntakeServiceImpl struct {
	txRepo    ports.TransactionRepository
	publisher ports.TransferPublisher
	guard     ports.IdempotencyGuard
	maxAmount decimal.Decimal
	log       zerolog.Logger
}

// NewIntakeService creates a new IntakeServiceImpl.
func NewIntakeService(
	txRepo ports.TransactionRepository,
	publisher ports.TransferPublisher,
	guard ports.IdempotencyGuard,
	maxAmount decimal.Decimal,
	log zerolog.Logger,
) *IntakeServiceImpl {
	return &IntakeServiceImpl{
		txRepo:    txRepo,
		publisher: publisher,
		guard:     guard,
		maxAmount: maxAmount,
		log:       log,
	}
}

// CreateTransfer validates and accepts a transfer request. When the caller
// supplies an idempotency key, a repeated request within the guard's TTL
// replays the original result instead of creating a second transaction.
func (s *IntakeServiceImpl) CreateTransfer(ctx context.Context, req ports.CreateTransferRequest) (*ports.CreateTransferResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	key := ""
	if req.IdempotencyKey != "" {
		// The params hash folds into the key: the same token with different
		// params is a different request, not a replay.
		key = domain.BuildIdempotencyKey(req.SourceID, "transfer",
			domain.HashParams(req.IdempotencyKey, req.DestinationID, req.Amount.String()))
	}

	fromCache, payload, err := s.guard.Check(ctx, key, func(ctx context.Context) ([]byte, error) {
		result, err := s.accept(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}

	var result ports.CreateTransferResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal intake result: %w", err))
	}
	result.FromCache = fromCache
	return &result, nil
}

// accept records the PENDING transaction and enqueues the transfer message.
func (s *IntakeServiceImpl) accept(ctx context.Context, req ports.CreateTransferRequest) (*ports.CreateTransferResult, error) {
	tx := &domain.Transaction{
		ID:            uuid.New(),
		SourceID:      req.SourceID,
		DestinationID: req.DestinationID,
		Amount:        req.Amount,
		Status:        domain.TransactionStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create transaction: %w", err))
	}

	msg := domain.TransferMessage{
		ID:            tx.ID,
		SourceID:      tx.SourceID,
		DestinationID: tx.DestinationID,
		Amount:        tx.Amount,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		// The PENDING record stays behind; it never reaches a worker and is
		// visible to reconciliation.
		s.log.Error().Err(err).Str("transaction_id", tx.ID.String()).Msg("failed to enqueue transfer")
		return nil, apperror.ErrTransient(fmt.Errorf("enqueue transfer: %w", err))
	}

	s.log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("source_id", tx.SourceID).
		Str("destination_id", tx.DestinationID).
		Str("amount", tx.Amount.String()).
		Msg("transfer accepted")

	return &ports.CreateTransferResult{ID: tx.ID, Status: tx.Status}, nil
}

func (s *IntakeServiceImpl) validate(req ports.CreateTransferRequest) error {
	if req.SourceID == "" || req.DestinationID == "" {
		return apperror.Validation("source and destination account ids are required")
	}
	if req.SourceID == req.DestinationID {
		return apperror.ErrSameAccount()
	}
	if !req.Amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if s.maxAmount.IsPositive() && req.Amount.GreaterThan(s.maxAmount) {
		return apperror.ErrAmountTooLarge(s.maxAmount.String())
	}
	return nil
}

// GetTransaction returns a transaction by id.
func (s *IntakeServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get transaction: %w", err))
	}
	if tx == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return tx, nil
}

// ListTransactions returns transactions matching the filter.
func (s *IntakeServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, error) {
	txs, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}
	return txs, nil
}
