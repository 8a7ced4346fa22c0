package recovery

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/agentcommerce/commerce-api-client/pkg/apierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error kind",
	}, []string{"kind"})
)

// RetryConfig holds the configuration for the retry strategy.
type RetryConfig struct {
	// MaxRetries is the maximum number of re-invocations after the
	// initial failure.
	MaxRetries int

	// BaseDelay is the backoff for the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff before jitter.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryStrategy retries transient failures with exponential backoff and
// jitter. Rate-limited and throttled errors wait out the upstream
// retry-after hint verbatim instead of backing off.
type RetryStrategy struct {
	cfg    RetryConfig
	logger zerolog.Logger

	// sleep waits out a backoff delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryStrategy creates a retry strategy with the given configuration.
// Zero or negative config fields fall back to the defaults.
func NewRetryStrategy(cfg RetryConfig) *RetryStrategy {
	defaults := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaults.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	return &RetryStrategy{
		cfg:    cfg,
		logger: log.With().Str("component", "recovery").Str("strategy", "retry").Logger(),
		sleep:  sleepContext,
	}
}

// CanRecover reports whether err is a transient kind worth retrying.
func (s *RetryStrategy) CanRecover(err error) bool {
	switch apierror.KindOf(err) {
	case apierror.KindNetwork, apierror.KindServer,
		apierror.KindRateLimitExceeded, apierror.KindThrottling:
		return true
	default:
		return false
	}
}

// Recover re-invokes the operation until it succeeds or MaxRetries is
// reached. On exhaustion the error from the last failed attempt is returned
// unchanged; no further invocation happens once the budget is spent.
func (s *RetryStrategy) Recover(ctx context.Context, err error, rctx *Context) (any, error) {
	attemptErr := err
	retryCount := rctx.RetryCount

	for {
		kind := apierror.KindOf(attemptErr)

		if retryCount >= s.cfg.MaxRetries {
			retryExhaustedTotal.WithLabelValues(string(kind)).Inc()
			s.logger.Warn().
				Str("kind", string(kind)).
				Int("max_retries", s.cfg.MaxRetries).
				Msg("Retry attempts exhausted")
			return nil, attemptErr
		}

		delay := s.delayFor(attemptErr, retryCount)
		retriesTotal.WithLabelValues(string(kind)).Inc()
		retryBackoffSeconds.WithLabelValues(string(kind)).Observe(delay.Seconds())

		s.logger.Debug().
			Str("kind", string(kind)).
			Int("retry_count", retryCount).
			Dur("backoff", delay).
			Msg("Retrying after backoff")

		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}

		value, opErr := rctx.Operation(ctx)
		if opErr == nil {
			s.logger.Info().
				Str("kind", string(kind)).
				Int("retry_count", retryCount+1).
				Msg("Operation succeeded after retry")
			return value, nil
		}

		attemptErr = opErr
		retryCount++
	}
}

// delayFor computes the wait before retry number retryCount. Rate-limit and
// throttling errors use the upstream hint verbatim; everything else uses
// capped exponential backoff plus uniform jitter in [0%, 25%].
func (s *RetryStrategy) delayFor(err error, retryCount int) time.Duration {
	switch apierror.KindOf(err) {
	case apierror.KindRateLimitExceeded, apierror.KindThrottling:
		return apierror.RetryAfterOf(err)
	}

	delay := s.cfg.BaseDelay << uint(retryCount)
	if delay > s.cfg.MaxDelay || delay <= 0 {
		delay = s.cfg.MaxDelay
	}
	jitter := time.Duration(rand.Float64() * 0.25 * float64(delay))
	return delay + jitter
}

// sleepContext waits for d, honoring context cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
