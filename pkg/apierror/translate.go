package apierror

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Category is the coarse error category reported by the upstream platform.
type Category string

const (
	CategoryAuth        Category = "auth"
	CategoryValidation  Category = "validation"
	CategoryRateLimit   Category = "rate_limit"
	CategoryServer      Category = "server"
	CategoryNetwork     Category = "network"
	CategoryClient      Category = "client"
	CategoryMarketplace Category = "marketplace"
)

// defaultRetryAfter is used when the retry-after header is missing or
// unparseable.
const defaultRetryAfter = time.Second

// Raw is the untranslated upstream failure as observed by the transport.
type Raw struct {
	Category   Category
	StatusCode int
	Message    string
	Code       string
	Details    map[string]any
	Headers    http.Header
	Cause      error
}

// Translate maps a raw upstream failure to exactly one APIError. The mapping
// is total: every input produces some kind, KindUnknown at worst. It is
// deterministic and side-effect-free aside from debug logging.
func Translate(raw Raw) *APIError {
	kind := classify(raw)

	e := &APIError{
		Kind:       kind,
		Code:       kind.Code(),
		Message:    fmt.Sprintf("%s: %s", categoryLabel(raw.Category), raw.Message),
		StatusCode: raw.StatusCode,
		Details:    raw.Details,
		Cause:      raw.Cause,
	}

	if kind == KindRateLimitExceeded || kind == KindThrottling {
		e.RetryAfter = retryAfter(raw.Headers)
	}

	log.Debug().
		Str("category", string(raw.Category)).
		Int("status", raw.StatusCode).
		Str("kind", string(kind)).
		Msg("Translated upstream error")

	return e
}

func classify(raw Raw) Kind {
	switch raw.Category {
	case CategoryAuth:
		if raw.StatusCode == http.StatusUnauthorized {
			return KindAuthentication
		}
		return KindAuthorization
	case CategoryValidation:
		return KindValidation
	case CategoryRateLimit:
		return KindRateLimitExceeded
	case CategoryServer:
		return KindServer
	case CategoryNetwork:
		return KindNetwork
	case CategoryMarketplace:
		return KindMarketplace
	case CategoryClient:
		switch {
		case raw.StatusCode == http.StatusNotFound:
			return KindResourceNotFound
		case raw.StatusCode == http.StatusTooManyRequests || detailCode(raw.Details) == "QuotaExceeded":
			return KindThrottling
		default:
			return KindClient
		}
	default:
		return KindUnknown
	}
}

// retryAfter parses the Retry-After header (seconds). Missing or
// non-numeric values fall back to defaultRetryAfter.
func retryAfter(headers http.Header) time.Duration {
	if headers == nil {
		return defaultRetryAfter
	}
	value := headers.Get("Retry-After")
	if value == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func detailCode(details map[string]any) string {
	if details == nil {
		return ""
	}
	code, _ := details["code"].(string)
	return code
}

func categoryLabel(c Category) string {
	if c == "" {
		return "unknown"
	}
	return string(c)
}
