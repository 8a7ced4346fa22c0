package apierror

import (
	"errors"
	"fmt"
	"time"
)

// APIError is the typed error produced by Translate and by the circuit
// breaker's fail-fast path. It survives serialization: consumers match on
// Kind and Code, never on the concrete Go type of the cause.
type APIError struct {
	// Kind is the classification of this error.
	Kind Kind

	// Code is the stable string code for the kind.
	Code string

	// Message is the human-readable description, prefixed with the
	// upstream category it was translated from.
	Message string

	// StatusCode is the upstream HTTP status, 0 for network errors.
	StatusCode int

	// Details carries opaque upstream diagnostics (error body fields).
	Details map[string]any

	// RetryAfter is the upstream retry hint for rate-limit and throttling
	// errors; zero otherwise.
	RetryAfter time.Duration

	// ResetAfter is the time until the circuit breaker permits a probe.
	// Set only on KindCircuitOpen errors.
	ResetAfter time.Duration

	// Cause is the wrapped original error, if any.
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("commerce %s error (status %d): %s: %v",
			e.Kind, e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("commerce %s error (status %d): %s",
		e.Kind, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of err, or KindUnknown if err is not an APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// RetryAfterOf returns the retry hint carried by err, or 0.
func RetryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

// NewCircuitOpen builds the synthetic error raised when the circuit breaker
// rejects a call without invoking the operation.
func NewCircuitOpen(resetAfter time.Duration) *APIError {
	return &APIError{
		Kind:       KindCircuitOpen,
		Code:       KindCircuitOpen.Code(),
		Message:    fmt.Sprintf("circuit breaker open, retry in %s", resetAfter),
		ResetAfter: resetAfter,
	}
}
