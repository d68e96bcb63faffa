package ports

import (
	"context"

	"payflow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService is the balance transfer operator: it applies a debit+credit
// pair as one atomic unit against the ledger store.
type LedgerService interface {
	Transfer(ctx context.Context, sourceID, destID string, amount decimal.Decimal) error
	CreateAccount(ctx context.Context, id, name, currency string, initial decimal.Decimal) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// TransferExecutor is the processor's view of the downstream balance
// mutation: a single remote transfer attempt. The resilience layer
// (breaker + retry) wraps implementations of this.
type TransferExecutor interface {
	Transfer(ctx context.Context, sourceID, destID string, amount decimal.Decimal) error
}

// IntakeService accepts transfer-creation requests: it validates, applies
// the idempotency guard, records a PENDING transaction and enqueues it.
type IntakeService interface {
	CreateTransfer(ctx context.Context, req CreateTransferRequest) (*CreateTransferResult, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, error)
}

// CreateTransferRequest holds validated intake input.
type CreateTransferRequest struct {
	SourceID       string
	DestinationID  string
	Amount         decimal.Decimal
	IdempotencyKey string // optional caller-supplied token
}

// CreateTransferResult is what intake returns immediately: the caller polls
// or gets notified for the terminal outcome.
type CreateTransferResult struct {
	ID        uuid.UUID                `json:"id"`
	Status    domain.TransactionStatus `json:"status"`
	FromCache bool                     `json:"-"` // replayed from the idempotency store
}

// IdempotencyGuard deduplicates keyed requests: the handler's side effects
// execute at most once per key within the TTL window.
type IdempotencyGuard interface {
	Check(ctx context.Context, key string, handler func(context.Context) ([]byte, error)) (fromCache bool, payload []byte, err error)
}

// BreakerProbe exposes circuit breaker state for health and metrics.
type BreakerProbe interface {
	State(service string) string
}
