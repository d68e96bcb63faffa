package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"payflow/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), testRetryPolicy(), zerolog.Nop(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperror.ErrTransient(errors.New("connection reset"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorAbortsImmediately(t *testing.T) {
	calls := 0
	permanent := apperror.ErrInsufficientFunds()
	err := Retry(context.Background(), testRetryPolicy(), zerolog.Nop(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	last := apperror.ErrTransient(errors.New("still down"))
	err := Retry(context.Background(), testRetryPolicy(), zerolog.Nop(), func(ctx context.Context) error {
		calls++
		return last
	})
	require.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}, zerolog.Nop(), func(ctx context.Context) error {
		calls++
		cancel()
		return apperror.ErrTransient(errors.New("down"))
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{}, zerolog.Nop(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelay_CappedAndNonNegative(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	for attempt := 1; attempt <= 10; attempt++ {
		for i := 0; i < 20; i++ {
			d := backoffDelay(policy, attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, policy.MaxDelay)
		}
	}
}

func TestBackoffDelay_GrowsWithAttempt(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Hour}
	// Full jitter draws from [0, base*2^(n-1)], so only the upper bound grows;
	// sample enough draws that the max observed reflects that bound.
	maxFor := func(attempt int) time.Duration {
		var max time.Duration
		for i := 0; i < 200; i++ {
			if d := backoffDelay(policy, attempt); d > max {
				max = d
			}
		}
		return max
	}
	assert.LessOrEqual(t, maxFor(1), 100*time.Millisecond)
	assert.Greater(t, maxFor(3), 100*time.Millisecond)
}
