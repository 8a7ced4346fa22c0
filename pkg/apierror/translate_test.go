package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestTranslate_Classification(t *testing.T) {
	tests := []struct {
		name     string
		raw      Raw
		wantKind Kind
		wantCode string
	}{
		{
			name:     "auth with 401 is authentication",
			raw:      Raw{Category: CategoryAuth, StatusCode: 401, Message: "token expired"},
			wantKind: KindAuthentication,
			wantCode: "AUTHENTICATION_ERROR",
		},
		{
			name:     "auth with 403 is authorization",
			raw:      Raw{Category: CategoryAuth, StatusCode: 403, Message: "missing scope"},
			wantKind: KindAuthorization,
			wantCode: "AUTHORIZATION_ERROR",
		},
		{
			name:     "auth without status is authorization",
			raw:      Raw{Category: CategoryAuth, Message: "denied"},
			wantKind: KindAuthorization,
			wantCode: "AUTHORIZATION_ERROR",
		},
		{
			name:     "validation category",
			raw:      Raw{Category: CategoryValidation, StatusCode: 400, Message: "bad sku"},
			wantKind: KindValidation,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "rate limit category",
			raw:      Raw{Category: CategoryRateLimit, StatusCode: 429, Message: "slow down"},
			wantKind: KindRateLimitExceeded,
			wantCode: "RATE_LIMIT_EXCEEDED",
		},
		{
			name:     "server category",
			raw:      Raw{Category: CategoryServer, StatusCode: 503, Message: "unavailable"},
			wantKind: KindServer,
			wantCode: "SERVER_ERROR",
		},
		{
			name:     "network category",
			raw:      Raw{Category: CategoryNetwork, Message: "connection reset"},
			wantKind: KindNetwork,
			wantCode: "NETWORK_ERROR",
		},
		{
			name:     "marketplace category",
			raw:      Raw{Category: CategoryMarketplace, StatusCode: 409, Message: "listing paused"},
			wantKind: KindMarketplace,
			wantCode: "MARKETPLACE_ERROR",
		},
		{
			name:     "client with 404 is resource not found",
			raw:      Raw{Category: CategoryClient, StatusCode: 404, Message: "no such order"},
			wantKind: KindResourceNotFound,
			wantCode: "RESOURCE_NOT_FOUND",
		},
		{
			name:     "client with 429 is throttling",
			raw:      Raw{Category: CategoryClient, StatusCode: 429, Message: "quota"},
			wantKind: KindThrottling,
			wantCode: "THROTTLING_ERROR",
		},
		{
			name: "client with QuotaExceeded detail is throttling",
			raw: Raw{
				Category:   CategoryClient,
				StatusCode: 400,
				Message:    "quota",
				Details:    map[string]any{"code": "QuotaExceeded"},
			},
			wantKind: KindThrottling,
			wantCode: "THROTTLING_ERROR",
		},
		{
			name:     "client otherwise is generic client",
			raw:      Raw{Category: CategoryClient, StatusCode: 400, Message: "bad request"},
			wantKind: KindClient,
			wantCode: "CLIENT_ERROR",
		},
		{
			name:     "unknown category is unknown",
			raw:      Raw{Category: "weird", StatusCode: 418, Message: "teapot"},
			wantKind: KindUnknown,
			wantCode: "UNKNOWN_ERROR",
		},
		{
			name:     "empty category is unknown",
			raw:      Raw{Message: "?"},
			wantKind: KindUnknown,
			wantCode: "UNKNOWN_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.raw)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.StatusCode != tt.raw.StatusCode {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.raw.StatusCode)
			}
		})
	}
}

func TestTranslate_Deterministic(t *testing.T) {
	raw := Raw{
		Category:   CategoryClient,
		StatusCode: 429,
		Message:    "quota exceeded",
		Details:    map[string]any{"code": "QuotaExceeded"},
	}

	first := Translate(raw)
	for i := 0; i < 10; i++ {
		got := Translate(raw)
		if got.Kind != first.Kind || got.Code != first.Code || got.Message != first.Message {
			t.Fatalf("Translate not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestTranslate_MessagePrefix(t *testing.T) {
	got := Translate(Raw{Category: CategoryValidation, Message: "price must be positive"})
	if !strings.HasPrefix(got.Message, "validation: ") {
		t.Errorf("Message = %q, want validation prefix", got.Message)
	}
}

func TestTranslate_PreservesDiagnostics(t *testing.T) {
	cause := errors.New("boom")
	details := map[string]any{"field": "price"}

	got := Translate(Raw{
		Category:   CategoryValidation,
		StatusCode: 400,
		Message:    "invalid",
		Details:    details,
		Cause:      cause,
	})

	if got.Details["field"] != "price" {
		t.Errorf("Details not preserved: %v", got.Details)
	}
	if !errors.Is(got, cause) {
		t.Error("Cause not reachable via errors.Is")
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"numeric header", "5", 5 * time.Second},
		{"zero header", "0", 0},
		{"missing header", "", time.Second},
		{"non-numeric header", "soon", time.Second},
		{"negative header", "-3", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set("Retry-After", tt.header)
			}

			got := Translate(Raw{Category: CategoryRateLimit, Message: "limited", Headers: headers})
			if got.RetryAfter != tt.want {
				t.Errorf("RetryAfter = %v, want %v", got.RetryAfter, tt.want)
			}
		})
	}
}

func TestRetryAfter_NilHeaders(t *testing.T) {
	got := Translate(Raw{Category: CategoryRateLimit, Message: "limited"})
	if got.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s default", got.RetryAfter)
	}
}

func TestRetryAfter_OnlyForRetryHintedKinds(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "5")

	got := Translate(Raw{Category: CategoryServer, StatusCode: 500, Message: "down", Headers: headers})
	if got.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0 for server errors", got.RetryAfter)
	}
}

func TestKindOf(t *testing.T) {
	apiErr := Translate(Raw{Category: CategoryServer, StatusCode: 500, Message: "down"})

	if KindOf(apiErr) != KindServer {
		t.Errorf("KindOf = %v, want %v", KindOf(apiErr), KindServer)
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf(plain error) should be KindUnknown")
	}

	wrapped := fmt.Errorf("outer: %w", apiErr)
	if KindOf(wrapped) != KindServer {
		t.Error("KindOf should see through wrapping")
	}
}

func TestIsKind(t *testing.T) {
	apiErr := Translate(Raw{Category: CategoryNetwork, Message: "timeout"})

	if !IsKind(apiErr, KindNetwork) {
		t.Error("IsKind(network err, KindNetwork) = false")
	}
	if IsKind(apiErr, KindServer) {
		t.Error("IsKind(network err, KindServer) = true")
	}
	if IsKind(nil, KindNetwork) {
		t.Error("IsKind(nil) = true")
	}
}

func TestNewCircuitOpen(t *testing.T) {
	err := NewCircuitOpen(30 * time.Second)

	if err.Kind != KindCircuitOpen {
		t.Errorf("Kind = %v, want %v", err.Kind, KindCircuitOpen)
	}
	if err.Code != "CIRCUIT_OPEN" {
		t.Errorf("Code = %q, want CIRCUIT_OPEN", err.Code)
	}
	if err.ResetAfter != 30*time.Second {
		t.Errorf("ResetAfter = %v, want 30s", err.ResetAfter)
	}
}
