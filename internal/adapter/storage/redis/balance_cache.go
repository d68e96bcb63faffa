package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payflow/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// BalanceCache implements ports.BalanceCache: read-through caching of
// account views, invalidated by the ledger after a transfer commits.
type BalanceCache struct {
	client *goredis.Client
	prefix string
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "account:",
	}
}

// GetAccount returns a cached account view, or nil, nil on miss.
func (c *BalanceCache) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	val, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis account get: %w", err)
	}

	a := &domain.Account{}
	if err := json.Unmarshal(val, a); err != nil {
		return nil, fmt.Errorf("unmarshal cached account: %w", err)
	}
	return a, nil
}

// SetAccount caches an account view with TTL.
func (c *BalanceCache) SetAccount(ctx context.Context, account *domain.Account, ttl time.Duration) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+account.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis account set: %w", err)
	}
	return nil
}

// Invalidate removes cached views for the given account ids.
func (c *BalanceCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.prefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis account invalidate: %w", err)
	}
	return nil
}
