// Package client provides the commerce API client with error translation,
// recovery strategies, response caching, and rate limit tracking.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agentcommerce/commerce-api-client/pkg/apierror"
	"github.com/agentcommerce/commerce-api-client/pkg/cache"
	"github.com/agentcommerce/commerce-api-client/pkg/ratelimit"
	"github.com/agentcommerce/commerce-api-client/pkg/recovery"
)

// Prometheus metrics for commerce client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_requests_total",
		Help: "Total commerce API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_request_duration_seconds",
		Help:    "Commerce API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_errors_total",
		Help: "Total translated commerce API errors by kind",
	}, []string{"kind"})
)

// Client is the commerce API client. All reads go through the two-tier cache
// and every request runs under the recovery manager, so callers see typed
// results or a translated *apierror.APIError.
type Client struct {
	httpClient  *http.Client
	config      Config
	cache       *cache.Manager
	recovery    *recovery.Manager
	rateLimiter *ratelimit.Tracker
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the commerce API, e.g. "https://api.example-commerce.com/v1".
	BaseURL string

	// UserAgent header sent with every request.
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// AccessToken is sent as a bearer token when set.
	AccessToken string

	// HTTPClient overrides the default HTTP client (mainly for testing).
	HTTPClient *http.Client

	// Cache configures the two-tier response cache.
	Cache cache.Config

	// Strategies overrides the default recovery chain (retry, then circuit
	// breaker). The order is the consultation order.
	Strategies []recovery.Strategy
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Cache:     cache.DefaultConfig(),
	}
}

// New creates a new commerce API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	logger := log.With().Str("component", "commerce-client").Logger()

	cacheManager, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient:  httpClient,
		config:      cfg,
		cache:       cacheManager,
		recovery:    recovery.NewManager(cfg.Strategies...),
		rateLimiter: ratelimit.NewTracker(logger),
		logger:      logger,
	}, nil
}

// Close releases the client's resources and flushes pending cache writes.
func (c *Client) Close() {
	c.cache.Close()
}

// Cache returns the underlying cache manager.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}

// RateLimiter returns the rate limit tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}

// errorEnvelope is the commerce API's error response body.
type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// do performs a single HTTP request and returns the response body. Failures
// come back as translated *apierror.APIError values; the recovery manager
// decides what to do with them one level up.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := strings.Trim(path, "/")

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()

		blocked := apierror.Translate(apierror.Raw{
			Category:   apierror.CategoryRateLimit,
			StatusCode: http.StatusTooManyRequests,
			Message:    "request budget exhausted",
		})
		blocked.RetryAfter = c.rateLimiter.GetState().TimeUntilReset()
		errorsTotal.WithLabelValues(blocked.Kind.String()).Inc()
		return nil, blocked
	}

	requestURL := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing commerce API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		apiErr := apierror.Translate(apierror.Raw{
			Category: apierror.CategoryNetwork,
			Message:  err.Error(),
			Cause:    err,
		})
		errorsTotal.WithLabelValues(apiErr.Kind.String()).Inc()
		return nil, apiErr
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.UpdateFromHeaders(resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		apiErr := apierror.Translate(apierror.Raw{
			Category:   apierror.CategoryNetwork,
			StatusCode: resp.StatusCode,
			Message:    "read response body: " + err.Error(),
			Cause:      err,
		})
		errorsTotal.WithLabelValues(apiErr.Kind.String()).Inc()
		return nil, apiErr
	}

	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		apiErr := c.translateResponse(resp, data)

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("kind", apiErr.Kind.String()).
			Msg("Commerce API request error")

		errorsTotal.WithLabelValues(apiErr.Kind.String()).Inc()
		return nil, apiErr
	}

	return data, nil
}

// translateResponse converts an error response into a translated APIError.
func (c *Client) translateResponse(resp *http.Response, body []byte) *apierror.APIError {
	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Error.Message
	if message == "" {
		message = resp.Status
	}

	return apierror.Translate(apierror.Raw{
		Category:   categoryFor(resp.StatusCode, envelope.Error.Code),
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       envelope.Error.Code,
		Details:    envelope.Error.Details,
		Headers:    resp.Header,
	})
}

// categoryFor derives the upstream failure category from the HTTP status and
// the API's error code.
func categoryFor(status int, code string) apierror.Category {
	if strings.HasPrefix(code, "Marketplace") {
		return apierror.CategoryMarketplace
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apierror.CategoryAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apierror.CategoryValidation
	case status == http.StatusTooManyRequests:
		return apierror.CategoryRateLimit
	case status >= 500:
		return apierror.CategoryServer
	default:
		return apierror.CategoryClient
	}
}
