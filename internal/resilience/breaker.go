package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"payflow/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds circuit breaker tuning.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	OpenTimeout      time.Duration // time in OPEN before allowing the half-open probe
	CallTimeout      time.Duration // per-call deadline applied inside the breaker
}

// DefaultBreakerConfig mirrors the values the pipeline runs with: trip after
// 5 consecutive failures, probe after 30s, 3s per call.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		CallTimeout:      3 * time.Second,
	}
}

// StateChangeFunc is notified on breaker state transitions (for metrics).
type StateChangeFunc func(service string, state string)

// BreakerManager tracks one circuit breaker per (service, operation) key.
// State is process-local: each processor instance independently observes
// the downstream and resets on restart.
type BreakerManager struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
	cfg      BreakerConfig
	onChange StateChangeFunc
	log      zerolog.Logger
}

// NewBreakerManager creates a BreakerManager.
func NewBreakerManager(cfg BreakerConfig, log zerolog.Logger) *BreakerManager {
	return &BreakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		cfg:      cfg,
		log:      log,
	}
}

// OnStateChange registers a state transition listener. Must be called
// before the first Execute.
func (m *BreakerManager) OnStateChange(fn StateChangeFunc) {
	m.onChange = fn
}

// Execute runs fn through the breaker for the given service key. When the
// breaker is open the call fails fast with ErrCircuitOpen and fn is never
// invoked. A per-call timeout bounds fn's context.
func (m *BreakerManager) Execute(ctx context.Context, service string, fn func(ctx context.Context) error) error {
	cb := m.getOrCreate(service)

	_, err := cb.Execute(func() (any, error) {
		callCtx := ctx
		if m.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, m.cfg.CallTimeout)
			defer cancel()
		}
		return nil, fn(callCtx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperror.ErrCircuitOpen(service)
		}
		return err
	}
	return nil
}

// State returns the breaker state for a service key: "closed", "half-open",
// "open", or "closed" for a breaker that has never been created.
func (m *BreakerManager) State(service string) string {
	m.mu.RLock()
	cb, ok := m.breakers[service]
	m.mu.RUnlock()
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

func (m *BreakerManager) getOrCreate(service string) *gobreaker.CircuitBreaker {
	m.mu.RLock()
	cb, ok := m.breakers[service]
	m.mu.RUnlock()
	if ok {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok = m.breakers[service]; ok {
		return cb
	}

	threshold := m.cfg.FailureThreshold
	if threshold == 0 {
		threshold = DefaultBreakerConfig().FailureThreshold
	}

	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 1, // exactly one half-open probe
		Timeout:     m.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !isServiceFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			m.log.Warn().
				Str("service", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			if m.onChange != nil {
				m.onChange(name, to.String())
			}
		},
	})
	m.breakers[service] = cb
	return cb
}

// isServiceFailure decides what the breaker counts. Business rejections
// (insufficient funds, unknown account) are valid downstream answers, not
// signs of degradation; transient infra errors and unexpected failures are.
func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if apperror.IsTransient(err) {
		return true
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
		return false
	}
	return true
}
