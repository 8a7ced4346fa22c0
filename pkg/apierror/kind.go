// Package apierror defines the typed error surface of the commerce client.
// Upstream platform failures are translated into a closed set of error kinds
// that the recovery layer and the tool-formatting layer can match on without
// depending on runtime type identity.
package apierror

// Kind classifies an API error. The set is closed; recovery strategies and
// consumers switch exhaustively over it.
type Kind string

const (
	// KindAuthentication indicates missing or invalid credentials (HTTP 401).
	KindAuthentication Kind = "authentication"

	// KindAuthorization indicates valid credentials without sufficient scope.
	KindAuthorization Kind = "authorization"

	// KindValidation indicates the request payload failed upstream validation.
	KindValidation Kind = "validation"

	// KindResourceNotFound indicates the addressed resource does not exist.
	KindResourceNotFound Kind = "resource_not_found"

	// KindRateLimitExceeded indicates the platform rate limit was hit.
	// The error carries the retry-after hint from the response headers.
	KindRateLimitExceeded Kind = "rate_limit_exceeded"

	// KindThrottling indicates quota-based throttling (HTTP 429 or a
	// QuotaExceeded detail code). Carries a retry-after hint like rate limits.
	KindThrottling Kind = "throttling"

	// KindServer indicates a 5xx upstream failure.
	KindServer Kind = "server"

	// KindNetwork indicates a transport-level failure (timeout, DNS, reset).
	KindNetwork Kind = "network"

	// KindMarketplace indicates a marketplace business-rule rejection.
	KindMarketplace Kind = "marketplace"

	// KindClient indicates a generic 4xx client error.
	KindClient Kind = "client"

	// KindUnknown is the total-mapping default for anything unclassified.
	KindUnknown Kind = "unknown"

	// KindCircuitOpen is synthetic: produced only by the circuit breaker
	// when it fails fast. Carries the time until the breaker allows a probe.
	KindCircuitOpen Kind = "circuit_open"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Code returns the stable string code exposed to consumers. Codes never
// change between releases; external layers key formatting off them.
func (k Kind) Code() string {
	switch k {
	case KindAuthentication:
		return "AUTHENTICATION_ERROR"
	case KindAuthorization:
		return "AUTHORIZATION_ERROR"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	case KindRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case KindThrottling:
		return "THROTTLING_ERROR"
	case KindServer:
		return "SERVER_ERROR"
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindMarketplace:
		return "MARKETPLACE_ERROR"
	case KindClient:
		return "CLIENT_ERROR"
	case KindCircuitOpen:
		return "CIRCUIT_OPEN"
	default:
		return "UNKNOWN_ERROR"
	}
}
