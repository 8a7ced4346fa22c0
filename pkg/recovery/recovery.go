// Package recovery implements error recovery orchestration for the commerce
// client: retry with backoff, fallbacks, and a circuit breaker, coordinated
// by a Manager that scans an ordered strategy list.
//
// Exactly one strategy governs an entire multi-attempt sequence per
// ExecuteWithRecovery call; a strategy's internal re-invocations of the
// operation never re-enter the Manager.
package recovery

import (
	"context"
	"errors"

	"github.com/agentcommerce/commerce-api-client/pkg/apierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for recovery orchestration.
var (
	recoveryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_recovery_attempts_total",
		Help: "Total recovery attempts by strategy and error kind",
	}, []string{"strategy", "kind"})

	recoveryUnhandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_recovery_unhandled_total",
		Help: "Total errors no strategy could recover, by error kind",
	}, []string{"kind"})
)

// Common errors returned by the recovery layer.
var (
	// ErrContextCancelled is returned when the context is cancelled while
	// waiting out a retry delay.
	ErrContextCancelled = errors.New("context cancelled")
)

// Operation is a single unit of work the recovery layer can re-invoke.
type Operation func(ctx context.Context) (any, error)

// Context carries per-attempt state into a strategy's Recover call.
type Context struct {
	// RetryCount is the number of recovery attempts already made.
	RetryCount int

	// Operation is the work to re-invoke on recovery.
	Operation Operation

	// Params are caller-supplied free-form values, passed through untouched.
	Params map[string]any
}

// Strategy decides whether and how to recover from an error.
type Strategy interface {
	// CanRecover reports whether this strategy applies to err. Some
	// strategies update internal state as a side effect of the check.
	CanRecover(err error) bool

	// Recover attempts to produce a value despite err. It may re-invoke
	// the operation from rctx. On failure the original error is returned
	// unchanged, except the circuit breaker's fail-fast path.
	Recover(ctx context.Context, err error, rctx *Context) (any, error)
}

// Manager orchestrates an ordered strategy list around caller operations.
// Construct one per client; the strategy list and any strategy state are
// shared by every caller of the same instance.
type Manager struct {
	strategies []Strategy
	logger     zerolog.Logger
}

// NewManager creates a recovery manager with the given strategies, scanned
// in order (priority = insertion order). With no strategies it defaults to
// retry first, circuit breaker second, so retryable server and network
// errors are absorbed by retry and the breaker only observes failures that
// retry declines or exhausts.
func NewManager(strategies ...Strategy) *Manager {
	if len(strategies) == 0 {
		strategies = []Strategy{
			NewRetryStrategy(DefaultRetryConfig()),
			NewCircuitBreakerStrategy(DefaultCircuitBreakerConfig()),
		}
	}
	return &Manager{
		strategies: strategies,
		logger:     log.With().Str("component", "recovery").Logger(),
	}
}

// ExecuteWithRecovery invokes op and, on failure, delegates to the first
// strategy whose CanRecover accepts the error. That strategy owns the whole
// attempt; if none match the error is returned unchanged.
func (m *Manager) ExecuteWithRecovery(ctx context.Context, op Operation, params map[string]any) (any, error) {
	value, err := op(ctx)
	if err == nil {
		return value, nil
	}

	kind := apierror.KindOf(err)

	for _, strategy := range m.strategies {
		if !strategy.CanRecover(err) {
			continue
		}

		name := strategyName(strategy)
		recoveryAttemptsTotal.WithLabelValues(name, string(kind)).Inc()
		m.logger.Debug().
			Str("strategy", name).
			Str("kind", string(kind)).
			Msg("Delegating to recovery strategy")

		return strategy.Recover(ctx, err, &Context{
			Operation: op,
			Params:    params,
		})
	}

	recoveryUnhandledTotal.WithLabelValues(string(kind)).Inc()
	m.logger.Debug().
		Str("kind", string(kind)).
		Msg("No strategy can recover, returning error unchanged")

	return nil, err
}

// Execute is a typed convenience wrapper around ExecuteWithRecovery.
func Execute[T any](ctx context.Context, m *Manager, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	value, err := m.ExecuteWithRecovery(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, nil)
	if err != nil {
		return zero, err
	}
	typed, _ := value.(T)
	return typed, nil
}

func strategyName(s Strategy) string {
	switch s.(type) {
	case *RetryStrategy:
		return "retry"
	case *FallbackStrategy:
		return "fallback"
	case *CircuitBreakerStrategy:
		return "circuit_breaker"
	default:
		return "custom"
	}
}
