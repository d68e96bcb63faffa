package service

import (
	"context"
	"time"

	"payflow/internal/core/ports"
	"payflow/pkg/apperror"

	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyGuardImpl implements ports.IdempotencyGuard over a TTL'd
// key-value store. Within the TTL window a key's handler runs at most once;
// replays return the recorded payload. A store outage fails the request
// rather than risking a duplicate side effect.
type IdempotencyGuardImpl struct {
	store ports.IdempotencyStore
	ttl   time.Duration
	log   zerolog.Logger
}

// NewIdempotencyGuard creates a new IdempotencyGuardImpl. A non-positive
// ttl falls back to 24 hours.
func NewIdempotencyGuard(store ports.IdempotencyStore, ttl time.Duration, log zerolog.Logger) *IdempotencyGuardImpl {
	if ttl <= 0 {
		ttl = idempotencyTTL
	}
	return &IdempotencyGuardImpl{store: store, ttl: ttl, log: log}
}

// Check runs handler at most once for key. An empty key bypasses the guard
// entirely.
func (g *IdempotencyGuardImpl) Check(ctx context.Context, key string, handler func(context.Context) ([]byte, error)) (bool, []byte, error) {
	if key == "" {
		payload, err := handler(ctx)
		return false, payload, err
	}

	cached, err := g.store.Get(ctx, key)
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("idempotency store read failed")
		return false, nil, apperror.ErrIdempotencyStore(err)
	}
	if cached != nil {
		g.log.Info().Str("key", key).Msg("idempotent replay")
		return true, cached, nil
	}

	payload, err := handler(ctx)
	if err != nil {
		return false, nil, err
	}

	// The side effect has happened; a write failure here means a replay of
	// the same key could run it again. Surface the failure to the caller.
	if err := g.store.Set(ctx, key, payload, g.ttl); err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("idempotency store write failed")
		return false, payload, apperror.ErrIdempotencyStore(err)
	}

	return false, payload, nil
}
