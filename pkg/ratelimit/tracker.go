package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commerce_rate_limit_remaining",
		Help: "Number of requests remaining in the current rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to critical remaining budget",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to warning remaining budget",
	})
)

// throttleDelay is the pause applied per request while in the warning band.
const throttleDelay = 1 * time.Second

// Tracker monitors the commerce API rate limit window and gates requests.
// State is per-process: every response updates it via UpdateFromHeaders, and
// ShouldAllowRequest consults it before the next call goes out.
type Tracker struct {
	mu     sync.RWMutex
	state  State
	logger zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTracker creates a new rate limit tracker. It starts in a healthy state
// and assumes a generous budget until the first response reports real numbers.
func NewTracker(logger zerolog.Logger) *Tracker {
	t := &Tracker{
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
	t.state = State{
		Remaining:  100,
		ResetAt:    t.now().Add(60 * time.Second),
		LastUpdate: t.now(),
		IsHealthy:  true,
	}
	return t
}

// GetState returns a snapshot of the current rate limit state. When the
// window has already reset and the total budget is known, the snapshot
// reflects the refreshed budget rather than the stale end-of-window numbers.
func (t *Tracker) GetState() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refreshLocked()
	return t.state
}

// refreshLocked rolls the window forward once ResetAt has passed.
func (t *Tracker) refreshLocked() {
	now := t.now()
	if t.state.Limit > 0 && now.After(t.state.ResetAt) {
		t.state.Remaining = t.state.Limit
		t.state.ResetAt = now.Add(60 * time.Second)
		t.state.UpdateHealth()
		rateLimitRemaining.Set(float64(t.state.Remaining))
	}
}

// UpdateFromHeaders parses rate limit headers from a commerce API response
// and updates the tracked state. Responses without X-RateLimit-Remaining are
// ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetStr := headers.Get("X-RateLimit-Reset")
	if resetStr == "" {
		return fmt.Errorf("X-RateLimit-Reset header missing")
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
	}

	limit := 0
	if limitStr := headers.Get("X-RateLimit-Limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	now := t.now()
	state := State{
		Remaining:  remain,
		Limit:      limit,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	rateLimitRemaining.Set(float64(remain))

	logEvent := t.logger.Info().
		Int("remaining", remain).
		Time("reset_at", state.ResetAt).
		Bool("is_healthy", state.IsHealthy)

	if state.NeedsCriticalBlock() {
		logEvent = t.logger.Error().Int("remaining", remain).Time("reset_at", state.ResetAt)
		logEvent.Msg("Rate limit CRITICAL - requests will be blocked")
	} else if state.NeedsThrottling() {
		logEvent = t.logger.Warn().Int("remaining", remain).Time("reset_at", state.ResetAt)
		logEvent.Msg("Rate limit WARNING - requests will be throttled")
	} else {
		logEvent.Msg("Rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current rate limit state. Returns false if the request should be blocked
// because the budget is critical. Returns true but sleeps for throttling when
// in the warning band; the sleep honors ctx cancellation.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state := t.GetState()

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Rate limit critical - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Rate limit warning - throttling request")

		rateLimitThrottlesTotal.Inc()
		if err := t.sleep(ctx, throttleDelay); err != nil {
			return false, err
		}
	}

	return true, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
