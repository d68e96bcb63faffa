package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a user-owned balance row in the ledger. Balances are
// fixed-point decimals and never go below zero; mutation happens only
// through the ledger service's atomic transfer.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
