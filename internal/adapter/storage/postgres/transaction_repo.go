package postgres

import (
	"context"
	"errors"
	"fmt"

	"payflow/internal/core/domain"
	"payflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. Rows are
// append-only: status advances through the monotonic lifecycle and the SQL
// guards refuse transitions out of terminal states.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, source_id, destination_id, amount, status, error_message,
		created_at, processing_started_at, completed_at`

// Create inserts a new PENDING transaction record.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, source_id, destination_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.SourceID, t.DestinationID, t.Amount, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction record.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.SourceID, &t.DestinationID, &t.Amount, &t.Status, &t.ErrorMessage,
		&t.CreatedAt, &t.ProcessingStartedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// List fetches transaction records matching the filter, newest first.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}

	if params.UserID != "" {
		args = append(args, params.UserID)
		query += fmt.Sprintf(" AND (source_id = $%d OR destination_id = $%d)", len(args), len(args))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.SourceID, &t.DestinationID, &t.Amount, &t.Status, &t.ErrorMessage,
			&t.CreatedAt, &t.ProcessingStartedAt, &t.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// MarkProcessing moves a PENDING or redelivered record into PROCESSING.
// PROCESSING is included so a redelivery after a crash can re-enter the
// attempt; terminal states are never touched.
func (r *TransactionRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE transactions
		SET status = $1, processing_started_at = NOW()
		WHERE id = $2 AND status IN ($3, $1)`

	tag, err := r.pool.Exec(ctx, query,
		domain.TransactionStatusProcessing, id, domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark transaction processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not in a processable state", id)
	}
	return nil
}

// MarkCompleted finalizes a PROCESSING record as COMPLETED.
func (r *TransactionRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE transactions
		SET status = $1, completed_at = NOW()
		WHERE id = $2 AND status = $3`

	tag, err := r.pool.Exec(ctx, query,
		domain.TransactionStatusCompleted, id, domain.TransactionStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark transaction completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not in PROCESSING", id)
	}
	return nil
}

// MarkFailed finalizes a PROCESSING record as FAILED with a reason.
func (r *TransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE transactions
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE id = $3 AND status = $4`

	tag, err := r.pool.Exec(ctx, query,
		domain.TransactionStatusFailed, reason, id, domain.TransactionStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark transaction failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not in PROCESSING", id)
	}
	return nil
}

// CountByStatus returns transaction counts grouped by status.
func (r *TransactionRepo) CountByStatus(ctx context.Context) (map[domain.TransactionStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM transactions GROUP BY status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count transactions by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TransactionStatus]int64)
	for rows.Next() {
		var status domain.TransactionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count transactions by status: %w", err)
	}
	return counts, nil
}
