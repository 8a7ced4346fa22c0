package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks hits by tier (memory, persistent).
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_cache_hits_total",
			Help: "Total number of cache hits by tier",
		},
		[]string{"layer"},
	)

	// cacheMisses tracks misses across both tiers.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commerce_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// cacheEvictions tracks entries removed without an explicit delete.
	cacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_cache_evictions_total",
			Help: "Total number of cache entries evicted by reason",
		},
		[]string{"reason"}, // "expired", "displaced"
	)

	// cacheErrors tracks persistent tier failures, which degrade to
	// misses rather than surfacing to callers.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_cache_errors_total",
			Help: "Total number of persistent cache operation errors",
		},
		[]string{"operation"}, // "load", "store", "delete", "clear"
	)

	// cacheEntries tracks the current memory tier size.
	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "commerce_cache_entries",
			Help: "Current number of entries in the memory tier",
		},
	)
)
