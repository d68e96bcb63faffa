package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"payflow/pkg/apperror"

	"github.com/rs/zerolog"
)

// RetryPolicy controls the in-process retry loop that runs inside a single
// message attempt. Queue-level redelivery is handled separately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 500ms base,
// capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Retry runs fn up to policy.MaxAttempts times. Only transient errors are
// retried; permanent errors abort immediately. Delays grow exponentially
// with full jitter. Context cancellation stops the loop between attempts.
func Retry(ctx context.Context, policy RetryPolicy, log zerolog.Logger, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !apperror.IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := backoffDelay(policy, attempt)
		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("transient error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// backoffDelay computes base * 2^(attempt-1) capped at MaxDelay, then applies
// full jitter: a uniform draw in [0, delay].
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	base := policy.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if policy.MaxDelay > 0 && delay >= policy.MaxDelay {
			delay = policy.MaxDelay
			break
		}
	}
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(delay) + 1))
}
