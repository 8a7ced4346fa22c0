// Package metrics provides the centralized Prometheus metrics registry for
// the commerce API client. All metrics are defined in their respective
// packages (client, cache, recovery, ratelimit) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the commerce client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Recovery Metrics (pkg/recovery):
//   - commerce_recovery_attempts_total{strategy, kind} (Counter): Recovery attempts by strategy and error kind
//   - commerce_recovery_unhandled_total{kind} (Counter): Errors no strategy could recover
//   - commerce_retries_total{kind} (Counter): Retry attempts by error kind
//   - commerce_retry_backoff_seconds{kind} (Histogram): Backoff duration by error kind
//   - commerce_retry_exhausted_total{kind} (Counter): Operations that exhausted max retries
//   - commerce_circuit_state (Gauge): Current circuit state (0=closed, 1=open, 2=half-open)
//   - commerce_circuit_transitions_total{state} (Counter): Circuit state transitions
//   - commerce_circuit_rejections_total (Counter): Operations rejected while the circuit was open
//
// Cache Metrics (pkg/cache):
//   - commerce_cache_hits_total{layer} (Counter): Cache hits by tier (memory, persistent)
//   - commerce_cache_misses_total (Counter): Cache misses
//   - commerce_cache_evictions_total{reason} (Counter): Evictions by reason (expired, displaced)
//   - commerce_cache_errors_total{operation} (Counter): Persistent tier operation errors
//   - commerce_cache_entries (Gauge): Current memory tier entry count
//
// Rate Limit Metrics (pkg/ratelimit):
//   - commerce_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - commerce_rate_limit_blocks_total (Counter): Requests blocked due to critical remaining budget
//   - commerce_rate_limit_throttles_total (Counter): Requests throttled due to warning remaining budget
//
// Request Metrics (pkg/client):
//   - commerce_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - commerce_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - commerce_errors_total{kind} (Counter): Translated errors by kind
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(commerce_cache_hits_total[5m])) /
//   (sum(rate(commerce_cache_hits_total[5m])) + sum(rate(commerce_cache_misses_total[5m])))
//
//   # Circuit Open
//   commerce_circuit_state == 1
//
//   # Request Error Rate
//   rate(commerce_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(commerce_request_duration_seconds_bucket[5m]))
//
//   # Retry Exhaustion Rate
//   rate(commerce_retry_exhausted_total[5m]) / rate(commerce_retries_total[5m])
