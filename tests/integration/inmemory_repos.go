package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"payflow/internal/core/domain"
	"payflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- In-Memory Account Repo ---
//
// Mirrors the postgres repo's locking behavior: GetForUpdate takes a
// per-account lock held until the transaction commits or rolls back, and
// AdjustBalance stages deltas that apply atomically at commit. Concurrency
// tests exercise the same lock-ordering guarantees as the real store.

type inMemoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	rowLocks map[string]*sync.Mutex
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{
		accounts: make(map[string]*domain.Account),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; ok {
		return fmt.Errorf("account already exists")
	}
	cp := *a
	r.accounts[a.ID] = &cp
	r.rowLocks[a.ID] = &sync.Mutex{}
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *inMemoryAccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Account, error) {
	mtx, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("GetForUpdate outside memTx")
	}

	r.mu.Lock()
	lock, exists := r.rowLocks[id]
	r.mu.Unlock()
	if !exists {
		return nil, nil
	}

	// Blocks like SELECT ... FOR UPDATE until the holding tx finishes.
	lock.Lock()
	mtx.held = append(mtx.held, lock)

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) AdjustBalance(ctx context.Context, tx pgx.Tx, id string, delta decimal.Decimal) error {
	mtx, ok := tx.(*memTx)
	if !ok {
		return fmt.Errorf("AdjustBalance outside memTx")
	}

	mtx.pending = append(mtx.pending, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		a, ok := r.accounts[id]
		if !ok {
			return fmt.Errorf("account %s not found", id)
		}
		a.Balance = a.Balance.Add(delta)
		a.UpdatedAt = time.Now().UTC()
		return nil
	})
	return nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor { return &inMemoryTransactor{} }

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx simulates a database transaction: staged writes apply on Commit,
// row locks release when the transaction finishes either way.
type memTx struct {
	pgx.Tx
	mu      sync.Mutex
	held    []*sync.Mutex
	pending []func() error
	done    bool
}

func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.release()
	for _, apply := range t.pending {
		if err := apply(); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.pending = nil
	t.release()
	return nil
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

// --- In-Memory Transaction Repo ---
//
// Enforces the same lifecycle guards as the SQL store: terminal rows are
// immutable and Mark* transitions check the current status.

type inMemoryTransactionRepo struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*domain.Transaction
	order        []uuid.UUID
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.transactions[tx.ID] = &cp
	r.order = append(r.order, tx.ID)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		tx := r.transactions[r.order[i]]
		if params.UserID != "" && tx.SourceID != params.UserID && tx.DestinationID != params.UserID {
			continue
		}
		if params.Status != nil && tx.Status != *params.Status {
			continue
		}
		out = append(out, *tx)
		if params.Limit > 0 && len(out) >= params.Limit {
			break
		}
	}
	return out, nil
}

func (r *inMemoryTransactionRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction %s not in a processable state", id)
	}
	if tx.Status != domain.TransactionStatusPending && tx.Status != domain.TransactionStatusProcessing {
		return fmt.Errorf("transaction %s not in a processable state", id)
	}
	now := time.Now().UTC()
	tx.Status = domain.TransactionStatusProcessing
	tx.ProcessingStartedAt = &now
	return nil
}

func (r *inMemoryTransactionRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok || tx.Status != domain.TransactionStatusProcessing {
		return fmt.Errorf("transaction %s not in PROCESSING", id)
	}
	now := time.Now().UTC()
	tx.Status = domain.TransactionStatusCompleted
	tx.CompletedAt = &now
	return nil
}

func (r *inMemoryTransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok || tx.Status != domain.TransactionStatusProcessing {
		return fmt.Errorf("transaction %s not in PROCESSING", id)
	}
	now := time.Now().UTC()
	tx.Status = domain.TransactionStatusFailed
	tx.ErrorMessage = &reason
	tx.CompletedAt = &now
	return nil
}

func (r *inMemoryTransactionRepo) CountByStatus(ctx context.Context) (map[domain.TransactionStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.TransactionStatus]int64)
	for _, tx := range r.transactions {
		counts[tx.Status]++
	}
	return counts, nil
}

// --- Inline Queue ---
//
// Replaces the broker for in-process tests: Publish dispatches the message
// straight to the handler, a Retry outcome redelivers with the bumped
// attempt count and DeadLetter captures the message.

type inlineQueue struct {
	mu      sync.Mutex
	handler ports.TransferHandler
	dead    []domain.TransferMessage
}

func newInlineQueue() *inlineQueue { return &inlineQueue{} }

func (q *inlineQueue) Publish(ctx context.Context, msg domain.TransferMessage) error {
	return q.deliver(ctx, msg, 0)
}

func (q *inlineQueue) PublishRetry(ctx context.Context, msg domain.TransferMessage, attempt int) error {
	return q.deliver(ctx, msg, attempt)
}

func (q *inlineQueue) deliver(ctx context.Context, msg domain.TransferMessage, attempt int) error {
	outcome := q.handler.Handle(ctx, domain.Delivery{Message: msg, Attempt: attempt})
	switch outcome {
	case domain.OutcomeRetry:
		return q.deliver(ctx, msg, attempt+1)
	case domain.OutcomeDeadLetter:
		q.mu.Lock()
		q.dead = append(q.dead, msg)
		q.mu.Unlock()
	}
	return nil
}

func (q *inlineQueue) deadLetters() []domain.TransferMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.TransferMessage(nil), q.dead...)
}

// --- Notification Capture ---

type captureNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func newCaptureNotifier() *captureNotifier { return &captureNotifier{} }

func (n *captureNotifier) Publish(ctx context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
	return nil
}

func (n *captureNotifier) byType(t domain.NotificationType) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, notification := range n.notifications {
		if notification.Type == t {
			out = append(out, notification)
		}
	}
	return out
}
