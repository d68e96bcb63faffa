package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payflow/internal/core/domain"
	"payflow/internal/core/ports"
	"payflow/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	balanceCacheTTL   = time.Minute
	uniqueViolationPg = "23505"
)

// LedgerServiceImpl implements ports.LedgerService: the debit+credit pair
// commits atomically under pessimistic row locks.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	cache       ports.BalanceCache
	transactor  ports.DBTransactor
	maxAmount   decimal.Decimal
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. maxAmount caps a single
// transfer; a non-positive cap disables the check.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	cache ports.BalanceCache,
	transactor ports.DBTransactor,
	maxAmount decimal.Decimal,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		cache:       cache,
		transactor:  transactor,
		maxAmount:   maxAmount,
		log:         log,
	}
}

// Transfer moves amount from sourceID to destID as one atomic unit. Rows
// lock in lexicographic id order so concurrent opposing transfers cannot
// deadlock. Either both balances change or neither does.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, sourceID, destID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if s.maxAmount.IsPositive() && amount.GreaterThan(s.maxAmount) {
		return apperror.ErrAmountTooLarge(s.maxAmount.String())
	}
	if sourceID == destID {
		return apperror.ErrSameAccount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	first, second := sourceID, destID
	if second < first {
		first, second = second, first
	}

	locked := map[string]*domain.Account{}
	for _, id := range []string{first, second} {
		acc, err := s.accountRepo.GetForUpdate(ctx, dbTx, id)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
		}
		if acc == nil {
			return apperror.ErrAccountNotFound(id)
		}
		locked[id] = acc
	}

	if locked[sourceID].Balance.LessThan(amount) {
		return apperror.ErrInsufficientFunds()
	}

	if err := s.accountRepo.AdjustBalance(ctx, dbTx, sourceID, amount.Neg()); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("debit source: %w", err))
	}
	if err := s.accountRepo.AdjustBalance(ctx, dbTx, destID, amount); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("credit destination: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit, best-effort: stale cache entries self-expire anyway.
	if err := s.cache.Invalidate(ctx, sourceID, destID); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate balance cache")
	}

	s.log.Info().
		Str("source_id", sourceID).
		Str("destination_id", destID).
		Str("amount", amount.String()).
		Msg("transfer applied")

	return nil
}

// CreateAccount registers a new ledger account with an initial balance.
func (s *LedgerServiceImpl) CreateAccount(ctx context.Context, id, name, currency string, initial decimal.Decimal) (*domain.Account, error) {
	if id == "" {
		return nil, apperror.Validation("account id is required")
	}
	if initial.IsNegative() {
		return nil, apperror.Validation("initial balance cannot be negative")
	}
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        id,
		Name:      name,
		Balance:   initial,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationPg {
			return nil, apperror.ErrDuplicateAccount()
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().Str("account_id", id).Msg("account created")
	return account, nil
}

// GetAccount reads through the balance cache.
func (s *LedgerServiceImpl) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	cached, err := s.cache.GetAccount(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", id).Msg("balance cache read failed, falling through")
	}
	if cached != nil {
		return cached, nil
	}

	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(id)
	}

	if err := s.cache.SetAccount(ctx, account, balanceCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("account_id", id).Msg("failed to cache account")
	}
	return account, nil
}

// ListAccounts returns all accounts.
func (s *LedgerServiceImpl) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}
