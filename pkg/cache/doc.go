// Package cache provides the tiered cache used by the commerce client:
// a fast in-memory tier with TTL expiry, optionally backed by a durable
// persistent tier (filesystem or Redis).
//
// Reads check the memory tier first; on a miss with persistence enabled the
// persistent tier is consulted and a valid hit is promoted into memory.
// Writes always land in memory and are mirrored to the persistent tier
// best-effort: a persistent write or read failure is logged and degrades to
// a miss, never surfaced to the caller.
//
// # Basic Usage
//
//	manager, err := cache.New(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer manager.Close()
//
//	manager.Set(ctx, "products:abc", product)
//	if v, ok := manager.Get(ctx, "products:abc"); ok {
//		product = v.(Product)
//	}
//
// # Memoization
//
//	orders, err := cache.WithCache(ctx, manager, key.String(), func(ctx context.Context) ([]Order, error) {
//		return fetchOrders(ctx)
//	})
//
// There is no single-flight deduplication: concurrent misses on the same
// key may each invoke the fetch function and overwrite the entry, last
// write wins.
//
// # Expiry
//
// An entry is absent once its TTL elapses, whether the janitor sweep
// noticed it first (every Config.CheckPeriod) or the read path did
// (check-on-read).
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - commerce_cache_hits_total{layer} - hits by tier (memory, persistent)
//   - commerce_cache_misses_total - misses across both tiers
//   - commerce_cache_evictions_total{reason} - expired and displaced entries
//   - commerce_cache_errors_total{operation} - persistent tier failures
//   - commerce_cache_entries - current memory tier size
package cache
