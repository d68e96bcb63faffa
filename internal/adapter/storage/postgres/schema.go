package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         VARCHAR(50) PRIMARY KEY,
		name       VARCHAR(100) NOT NULL,
		balance    DECIMAL(15,2) NOT NULL DEFAULT 0.00 CHECK (balance >= 0),
		currency   VARCHAR(3) NOT NULL DEFAULT 'USD',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                    UUID PRIMARY KEY,
		source_id             VARCHAR(50) NOT NULL,
		destination_id        VARCHAR(50) NOT NULL,
		amount                DECIMAL(15,2) NOT NULL,
		status                VARCHAR(20) NOT NULL,
		error_message         TEXT,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processing_started_at TIMESTAMPTZ,
		completed_at          TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_destination ON transactions(destination_id, created_at DESC)`,
}

// InitSchema creates the ledger and transaction tables if they do not
// exist. Idempotent.
func InitSchema(ctx context.Context, pool Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
