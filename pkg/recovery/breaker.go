package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/agentcommerce/commerce-api-client/pkg/apierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for circuit breaker state.
var (
	circuitStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commerce_circuit_state",
		Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
	})

	circuitTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_circuit_transitions_total",
		Help: "Total circuit breaker state transitions by target state",
	}, []string{"state"})

	circuitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_circuit_rejections_total",
		Help: "Total calls rejected while the circuit was open",
	})
)

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	StateClosed   BreakerState = iota // Normal operation, calls pass through
	StateOpen                         // Failing fast, calls are rejected
	StateHalfOpen                     // Single probe allowed to test recovery
)

// String returns a human-readable state name.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds the circuit breaker configuration.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of trip-eligible failures that opens
	// the circuit from closed.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before the next
	// access observes half-open.
	ResetTimeout time.Duration

	// TripKinds are the error kinds that count toward opening the circuit.
	// All other kinds pass through without touching breaker state.
	TripKinds []apierror.Kind
}

// DefaultCircuitBreakerConfig returns the default breaker configuration:
// five failures open the circuit for one minute; only server and network
// errors trip it.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
		TripKinds:        []apierror.Kind{apierror.KindServer, apierror.KindNetwork},
	}
}

// CircuitBreakerStrategy stops calling a failing upstream for a cooldown
// period after repeated trip-eligible failures.
//
// The open-to-half-open transition is a stored deadline checked lazily on
// the next access, not a background timer. CanRecover performs that check
// as a side effect, so it is not a pure query; a second caller can slip in
// between CanRecover and Recover and the two can double-count overlapping
// failures. That window is inherent to the check/use split and is left as
// documented behavior.
type CircuitBreakerStrategy struct {
	cfg       CircuitBreakerConfig
	tripKinds map[apierror.Kind]bool
	logger    zerolog.Logger

	mu            sync.Mutex
	state         BreakerState
	failureCount  int
	lastFailure   time.Time
	resetDeadline time.Time

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewCircuitBreakerStrategy creates a circuit breaker in the closed state.
// Zero or negative config fields fall back to the defaults.
func NewCircuitBreakerStrategy(cfg CircuitBreakerConfig) *CircuitBreakerStrategy {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaults.ResetTimeout
	}
	if len(cfg.TripKinds) == 0 {
		cfg.TripKinds = defaults.TripKinds
	}

	tripKinds := make(map[apierror.Kind]bool, len(cfg.TripKinds))
	for _, k := range cfg.TripKinds {
		tripKinds[k] = true
	}

	return &CircuitBreakerStrategy{
		cfg:       cfg,
		tripKinds: tripKinds,
		logger:    log.With().Str("component", "recovery").Str("strategy", "circuit_breaker").Logger(),
		state:     StateClosed,
		now:       time.Now,
	}
}

// CanRecover reports whether the breaker permits an attempt for err.
// Non-trip-eligible kinds always pass without touching state. For
// trip-eligible kinds the check refreshes the open-to-half-open deadline as
// a side effect and returns false only while the circuit is open.
func (s *CircuitBreakerStrategy) CanRecover(err error) bool {
	if !s.tripKinds[apierror.KindOf(err)] {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.state != StateOpen
}

// Recover invokes the operation unless the circuit is open, in which case
// it fails fast with a synthetic circuit-open error carrying the time until
// the next probe is allowed. A success while half-open closes the circuit;
// a trip-eligible failure updates state and the original error is returned
// unchanged. Composing with retry is done by strategy ordering in the
// Manager, never by nesting; Recover makes exactly one attempt.
func (s *CircuitBreakerStrategy) Recover(ctx context.Context, err error, rctx *Context) (any, error) {
	s.mu.Lock()
	s.refreshLocked()
	if s.state == StateOpen {
		resetAfter := s.resetDeadline.Sub(s.now())
		s.mu.Unlock()

		circuitRejectionsTotal.Inc()
		s.logger.Warn().
			Dur("reset_after", resetAfter).
			Msg("Circuit open, rejecting call")
		return nil, apierror.NewCircuitOpen(resetAfter)
	}
	wasHalfOpen := s.state == StateHalfOpen
	s.mu.Unlock()

	value, opErr := rctx.Operation(ctx)
	if opErr == nil {
		if wasHalfOpen {
			s.mu.Lock()
			s.closeLocked()
			s.mu.Unlock()
		}
		return value, nil
	}

	if s.tripKinds[apierror.KindOf(opErr)] {
		s.mu.Lock()
		s.recordFailureLocked()
		s.mu.Unlock()
	}

	return nil, err
}

// State returns the current breaker state, applying the lazy
// open-to-half-open transition first.
func (s *CircuitBreakerStrategy) State() BreakerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.state
}

// FailureCount returns the current trip-eligible failure count.
func (s *CircuitBreakerStrategy) FailureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failureCount
}

// refreshLocked applies the open-to-half-open transition when the reset
// deadline has elapsed. Callers must hold mu.
func (s *CircuitBreakerStrategy) refreshLocked() {
	if s.state == StateOpen && !s.now().Before(s.resetDeadline) {
		s.state = StateHalfOpen
		circuitStateGauge.Set(float64(StateHalfOpen))
		circuitTransitionsTotal.WithLabelValues(StateHalfOpen.String()).Inc()
		s.logger.Info().Msg("Circuit reset deadline elapsed, allowing probe")
	}
}

// recordFailureLocked counts a trip-eligible failure. While closed it opens
// the circuit once the threshold is reached; while half-open any failure
// reopens it and restarts the deadline. Callers must hold mu.
func (s *CircuitBreakerStrategy) recordFailureLocked() {
	s.failureCount++
	s.lastFailure = s.now()

	switch s.state {
	case StateClosed:
		if s.failureCount >= s.cfg.FailureThreshold {
			s.openLocked()
		}
	case StateHalfOpen:
		s.openLocked()
	}
}

// openLocked transitions to open and schedules the reset deadline.
func (s *CircuitBreakerStrategy) openLocked() {
	s.state = StateOpen
	s.resetDeadline = s.now().Add(s.cfg.ResetTimeout)
	circuitStateGauge.Set(float64(StateOpen))
	circuitTransitionsTotal.WithLabelValues(StateOpen.String()).Inc()
	s.logger.Warn().
		Int("failure_count", s.failureCount).
		Time("reset_deadline", s.resetDeadline).
		Msg("Circuit opened")
}

// closeLocked transitions to closed and zeroes the failure count.
func (s *CircuitBreakerStrategy) closeLocked() {
	s.state = StateClosed
	s.failureCount = 0
	circuitStateGauge.Set(float64(StateClosed))
	circuitTransitionsTotal.WithLabelValues(StateClosed.String()).Inc()
	s.logger.Info().Msg("Circuit closed after successful probe")
}
