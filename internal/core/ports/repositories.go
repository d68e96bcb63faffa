package ports

import (
	"context"
	"time"

	"payflow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for ledger accounts.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	// GetForUpdate fetches an account row with an exclusive lock.
	// Must be called within a transaction.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Account, error)
	// AdjustBalance applies a signed delta to an account balance within a
	// transaction.
	AdjustBalance(ctx context.Context, tx pgx.Tx, id string, delta decimal.Decimal) error
}

// TransactionRepository defines persistence for transaction status records.
// Status updates enforce the monotonic lifecycle at the SQL level: a row in
// a terminal state is never modified.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// CountByStatus returns the number of transactions per status, for the
	// observability surface.
	CountByStatus(ctx context.Context) (map[domain.TransactionStatus]int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID string // matches source or destination
	Status *domain.TransactionStatus
	Limit  int
}

// IdempotencyStore is the TTL'd store backing the idempotency guard.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// BalanceCache caches account views and supports invalidation after a
// transfer mutates the underlying rows.
type BalanceCache interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error) // nil, nil on miss
	SetAccount(ctx context.Context, account *domain.Account, ttl time.Duration) error
	Invalidate(ctx context.Context, ids ...string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
