// Package ratelimit implements commerce API rate limit tracking and request
// gating. It monitors the X-RateLimit-Remaining and X-RateLimit-Reset headers
// to keep the client inside its request budget instead of burning it on
// responses that would only come back as 429s.
package ratelimit

import (
	"time"
)

// Thresholds for rate limit decisions.
const (
	// RemainingCritical blocks all requests when the remaining budget falls
	// below this value. The last few requests are reserved so urgent calls
	// (order writes) never hit a hard 429.
	RemainingCritical = 5

	// RemainingWarning applies throttling when the remaining budget falls
	// below this value. This slows down the request rate so the window can
	// recover.
	RemainingWarning = 20

	// RemainingHealthy indicates normal operation. At or above this value no
	// restrictions apply.
	RemainingHealthy = 50
)

// State represents the current rate limit window as last reported by the
// commerce API.
type State struct {
	// Remaining is the number of requests left in the current window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// Limit is the total request budget per window, when the API reports it
	// via X-RateLimit-Limit. Zero when unknown.
	Limit int `json:"limit"`

	// ResetAt is the timestamp when the window resets. Calculated from the
	// X-RateLimit-Reset header (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is the timestamp when this state was last updated from
	// response headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy indicates whether the budget is in a healthy state.
	// True when Remaining >= RemainingHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked until the
// window resets.
func (s State) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s State) NeedsThrottling() bool {
	return s.Remaining < RemainingWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingHealthy
}
