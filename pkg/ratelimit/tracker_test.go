package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestTracker() *Tracker {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewTracker(logger)
}

// recordSleeps replaces the tracker's sleep with a recorder so throttle tests
// don't take wall-clock time.
func recordSleeps(t *Tracker) *[]time.Duration {
	var slept []time.Duration
	t.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}

func TestNewTracker_StartsHealthy(t *testing.T) {
	tracker := newTestTracker()

	state := tracker.GetState()
	if !state.IsHealthy {
		t.Error("new tracker should start healthy")
	}
	if state.NeedsCriticalBlock() || state.NeedsThrottling() {
		t.Error("new tracker should not gate requests")
	}
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	tests := []struct {
		name            string
		remainHeader    string
		resetHeader     string
		limitHeader     string
		expectedRemain  int
		expectedLimit   int
		expectedHealthy bool
	}{
		{
			name:            "healthy state",
			remainHeader:    "100",
			resetHeader:     "60",
			limitHeader:     "120",
			expectedRemain:  100,
			expectedLimit:   120,
			expectedHealthy: true,
		},
		{
			name:            "warning state",
			remainHeader:    "15",
			resetHeader:     "30",
			expectedRemain:  15,
			expectedHealthy: false,
		},
		{
			name:            "critical state",
			remainHeader:    "3",
			resetHeader:     "45",
			expectedRemain:  3,
			expectedHealthy: false,
		},
		{
			name:            "at healthy threshold",
			remainHeader:    "50",
			resetHeader:     "60",
			expectedRemain:  50,
			expectedHealthy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker()

			headers := http.Header{}
			headers.Set("X-RateLimit-Remaining", tt.remainHeader)
			headers.Set("X-RateLimit-Reset", tt.resetHeader)
			if tt.limitHeader != "" {
				headers.Set("X-RateLimit-Limit", tt.limitHeader)
			}

			if err := tracker.UpdateFromHeaders(headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			state := tracker.GetState()
			if state.Remaining != tt.expectedRemain {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.expectedRemain)
			}
			if state.Limit != tt.expectedLimit {
				t.Errorf("Limit = %d, want %d", state.Limit, tt.expectedLimit)
			}
			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectedHealthy)
			}

			got := state.TimeUntilReset()
			want := mustParseSeconds(t, tt.resetHeader)
			if got > want || got < want-time.Second {
				t.Errorf("TimeUntilReset() = %v, want approximately %v", got, want)
			}
		})
	}
}

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	tests := []struct {
		name         string
		remainHeader string
		resetHeader  string
		shouldError  bool
	}{
		{
			name:         "missing remaining header",
			remainHeader: "",
			resetHeader:  "60",
			shouldError:  false, // Responses without rate limit headers are ignored
		},
		{
			name:         "invalid remaining header",
			remainHeader: "invalid",
			resetHeader:  "60",
			shouldError:  true,
		},
		{
			name:         "invalid reset header",
			remainHeader: "100",
			resetHeader:  "invalid",
			shouldError:  true,
		},
		{
			name:         "missing reset header",
			remainHeader: "100",
			resetHeader:  "",
			shouldError:  true,
		},
		{
			name:         "both headers missing",
			remainHeader: "",
			resetHeader:  "",
			shouldError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker()
			before := tracker.GetState()

			headers := http.Header{}
			if tt.remainHeader != "" {
				headers.Set("X-RateLimit-Remaining", tt.remainHeader)
			}
			if tt.resetHeader != "" {
				headers.Set("X-RateLimit-Reset", tt.resetHeader)
			}

			err := tracker.UpdateFromHeaders(headers)

			if tt.shouldError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			// A rejected or ignored update must not disturb the tracked state.
			after := tracker.GetState()
			if after.Remaining != before.Remaining {
				t.Errorf("Remaining changed from %d to %d after bad update", before.Remaining, after.Remaining)
			}
		})
	}
}

func TestShouldAllowRequest(t *testing.T) {
	tests := []struct {
		name           string
		remaining      int
		expectAllowed  bool
		expectThrottle bool
	}{
		{
			name:           "healthy - allow immediately",
			remaining:      100,
			expectAllowed:  true,
			expectThrottle: false,
		},
		{
			name:           "at healthy threshold - allow immediately",
			remaining:      RemainingHealthy,
			expectAllowed:  true,
			expectThrottle: false,
		},
		{
			name:           "warning - allow with throttle",
			remaining:      15,
			expectAllowed:  true,
			expectThrottle: true,
		},
		{
			name:           "critical - block",
			remaining:      3,
			expectAllowed:  false,
			expectThrottle: false,
		},
		{
			name:           "at critical threshold - allow with throttle",
			remaining:      RemainingCritical,
			expectAllowed:  true,
			expectThrottle: true, // Still in warning band
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker()
			slept := recordSleeps(tracker)

			headers := http.Header{}
			headers.Set("X-RateLimit-Remaining", strconv.Itoa(tt.remaining))
			headers.Set("X-RateLimit-Reset", "60")
			if err := tracker.UpdateFromHeaders(headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			allowed, err := tracker.ShouldAllowRequest(context.Background())
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}

			if allowed != tt.expectAllowed {
				t.Errorf("ShouldAllowRequest() = %v, want %v (remaining=%d)", allowed, tt.expectAllowed, tt.remaining)
			}

			throttled := len(*slept) > 0
			if throttled != tt.expectThrottle {
				t.Errorf("throttled = %v, want %v (remaining=%d)", throttled, tt.expectThrottle, tt.remaining)
			}
			if throttled && (*slept)[0] != throttleDelay {
				t.Errorf("throttle sleep = %v, want %v", (*slept)[0], throttleDelay)
			}
		})
	}
}

func TestShouldAllowRequest_ContextCancelledDuringThrottle(t *testing.T) {
	tracker := newTestTracker()

	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "15")
	headers.Set("X-RateLimit-Reset", "60")
	if err := tracker.UpdateFromHeaders(headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if allowed {
		t.Error("ShouldAllowRequest() = true, want false when context is cancelled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ShouldAllowRequest() error = %v, want context.Canceled", err)
	}
}

func TestGetState_WindowRefreshAfterReset(t *testing.T) {
	tracker := newTestTracker()

	base := time.Now()
	current := base
	tracker.now = func() time.Time { return current }

	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "3")
	headers.Set("X-RateLimit-Reset", "2")
	headers.Set("X-RateLimit-Limit", "100")
	if err := tracker.UpdateFromHeaders(headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if state := tracker.GetState(); !state.NeedsCriticalBlock() {
		t.Fatal("state should be critical before the window resets")
	}

	current = base.Add(3 * time.Second)

	state := tracker.GetState()
	if state.Remaining != 100 {
		t.Errorf("Remaining after window reset = %d, want 100", state.Remaining)
	}
	if !state.IsHealthy {
		t.Error("state should be healthy after window reset")
	}
}

func TestGetState_NoRefreshWithoutKnownLimit(t *testing.T) {
	tracker := newTestTracker()

	base := time.Now()
	current := base
	tracker.now = func() time.Time { return current }

	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "3")
	headers.Set("X-RateLimit-Reset", "2")
	if err := tracker.UpdateFromHeaders(headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	current = base.Add(3 * time.Second)

	// Without a reported limit there is nothing to refill to. Stay
	// conservative until the next response reports real numbers.
	if state := tracker.GetState(); state.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3 (no refill without a known limit)", state.Remaining)
	}
}

func mustParseSeconds(t *testing.T, val string) time.Duration {
	t.Helper()
	d, err := time.ParseDuration(val + "s")
	if err != nil {
		t.Fatalf("bad seconds value %q: %v", val, err)
	}
	return d
}
