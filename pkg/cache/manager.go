package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Manager is the two-tier cache. Construct one per client and keep it for
// that scope; the memory map and stats are shared by every caller of the
// same instance.
type Manager struct {
	cfg    Config
	logger zerolog.Logger
	store  persistentStore

	mu      sync.Mutex
	entries map[string]*Entry
	hits    uint64
	misses  uint64

	writes    sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once

	// now is the clock; replaced in tests.
	now func() time.Time
}

// New creates a cache manager. With Persistent enabled the durable tier is
// Redis when cfg.Redis is set, otherwise one JSON file per key under
// cfg.PersistentDir. A janitor goroutine sweeps expired memory entries
// every CheckPeriod until Close is called.
func New(cfg Config) (*Manager, error) {
	cfg = cfg.normalize()

	m := &Manager{
		cfg:     cfg,
		logger:  log.With().Str("component", "cache").Logger(),
		entries: make(map[string]*Entry),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	if cfg.Persistent {
		if cfg.Redis != nil {
			m.store = newRedisStore(cfg.Redis)
		} else {
			store, err := newFSStore(cfg.PersistentDir)
			if err != nil {
				return nil, err
			}
			m.store = store
		}
	}

	go m.janitor()

	return m, nil
}

// Close stops the janitor and waits for in-flight persistent writes.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.writes.Wait()
}

// Get returns the cached value for key. The memory tier is checked first;
// on a miss with persistence enabled the persistent tier is consulted and
// a valid hit is promoted into memory. Reading mutates the entry's access
// metadata.
func (m *Manager) Get(ctx context.Context, key string) (any, bool) {
	m.mu.Lock()
	now := m.now()
	if e, ok := m.entries[key]; ok {
		if !e.expired(now) {
			e.touch(now)
			m.recordHitLocked("memory")
			value := e.Value
			m.mu.Unlock()
			return value, true
		}
		delete(m.entries, key)
		cacheEntries.Set(float64(len(m.entries)))
		cacheEvictions.WithLabelValues("expired").Inc()
	}
	m.mu.Unlock()

	if m.store != nil {
		stored, err := m.store.Load(ctx, key)
		switch {
		case err == nil:
			m.promote(key, stored)
			m.mu.Lock()
			m.recordHitLocked("persistent")
			m.mu.Unlock()
			return stored.Value, true
		case !errors.Is(err, ErrStoreMiss):
			cacheErrors.WithLabelValues("load").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Persistent cache read failed")
		}
	}

	m.mu.Lock()
	m.recordMissLocked()
	m.mu.Unlock()
	return nil, false
}

// Set writes the value to the memory tier with the given TTL (the config
// default when omitted) and mirrors it to the persistent tier best-effort:
// the disk or Redis write happens asynchronously and failures are logged
// and swallowed.
func (m *Manager) Set(ctx context.Context, key string, value any, ttl ...time.Duration) {
	d := m.cfg.DefaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}

	now := m.now()
	expiresAt := now.Add(d)

	m.mu.Lock()
	m.insertLocked(key, &Entry{
		Value:          value,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      expiresAt,
	})
	m.mu.Unlock()

	if m.store == nil {
		return
	}

	stored := &storedEntry{
		Value:     value,
		ExpiresAt: expiresAt.UnixMilli(),
		CreatedAt: now.UnixMilli(),
	}
	writeCtx := context.WithoutCancel(ctx)
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if err := m.store.Store(writeCtx, key, stored); err != nil {
			cacheErrors.WithLabelValues("store").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Persistent cache write failed")
		}
	}()
}

// Delete removes key from both tiers, reporting whether either had it.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	m.mu.Lock()
	_, existed := m.entries[key]
	delete(m.entries, key)
	cacheEntries.Set(float64(len(m.entries)))
	m.mu.Unlock()

	if m.store != nil {
		removed, err := m.store.Delete(ctx, key)
		if err != nil {
			cacheErrors.WithLabelValues("delete").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Persistent cache delete failed")
		} else if removed {
			existed = true
		}
	}

	return existed
}

// DeletePattern removes every key matching the pattern from both tiers and
// returns the number of distinct keys removed. '*' in the pattern matches
// any run of characters, so "commerce:products*" invalidates every product
// read after a write.
func (m *Manager) DeletePattern(ctx context.Context, pattern string) int {
	matched := make(map[string]bool)

	m.mu.Lock()
	for key := range m.entries {
		if matchPattern(pattern, key) {
			matched[key] = true
		}
	}
	m.mu.Unlock()

	if m.store != nil {
		keys, err := m.store.Keys(ctx)
		if err != nil {
			cacheErrors.WithLabelValues("delete").Inc()
			m.logger.Warn().Err(err).Msg("Persistent cache key listing failed")
		}
		for _, key := range keys {
			if matchPattern(pattern, key) {
				matched[key] = true
			}
		}
	}

	for key := range matched {
		m.Delete(ctx, key)
	}

	m.logger.Debug().
		Str("pattern", pattern).
		Int("removed", len(matched)).
		Msg("Invalidated cache entries")

	return len(matched)
}

// Clear removes all entries from both tiers and resets the statistics
// counters to zero.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]*Entry)
	m.hits = 0
	m.misses = 0
	cacheEntries.Set(0)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			cacheErrors.WithLabelValues("clear").Inc()
			m.logger.Warn().Err(err).Msg("Persistent cache clear failed")
		}
	}
}

// GetStats returns a snapshot of the hit/miss counters and current size.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Hits:   m.hits,
		Misses: m.misses,
		Size:   len(m.entries),
	}
	if total := m.hits + m.misses; total > 0 {
		stats.HitRatio = float64(m.hits) / float64(total)
	}
	return stats
}

// WithCache memoizes fn under key: a cached value is returned as-is, a miss
// invokes fn and caches its result. There is no single-flight dedup;
// concurrent misses may each invoke fn and overwrite the entry, last write
// wins. Values promoted from the persistent tier lose their concrete Go
// type across the JSON round-trip; a type mismatch is treated as a miss.
func WithCache[T any](ctx context.Context, m *Manager, key string, fn func(ctx context.Context) (T, error), ttl ...time.Duration) (T, error) {
	if value, ok := m.Get(ctx, key); ok {
		if typed, ok := value.(T); ok {
			return typed, nil
		}
	}

	value, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	m.Set(ctx, key, value, ttl...)
	return value, nil
}

// promote writes a persistent tier hit through into the memory tier,
// keeping the stored deadline.
func (m *Manager) promote(key string, stored *storedEntry) {
	now := m.now()
	entry := &Entry{
		Value:          stored.Value,
		CreatedAt:      time.UnixMilli(stored.CreatedAt),
		LastAccessedAt: now,
		AccessCount:    1,
	}
	if stored.ExpiresAt > 0 {
		entry.ExpiresAt = time.UnixMilli(stored.ExpiresAt)
	}

	m.mu.Lock()
	m.insertLocked(key, entry)
	m.mu.Unlock()
}

// insertLocked adds an entry, displacing the least recently accessed one
// when the memory tier is full. Callers must hold mu.
func (m *Manager) insertLocked(key string, e *Entry) {
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.cfg.MaxEntries {
		m.displaceLocked()
	}
	m.entries[key] = e
	cacheEntries.Set(float64(len(m.entries)))
}

// displaceLocked evicts the least recently accessed entry.
func (m *Manager) displaceLocked() {
	var victim string
	var oldest time.Time
	for key, e := range m.entries {
		if victim == "" || e.LastAccessedAt.Before(oldest) {
			victim = key
			oldest = e.LastAccessedAt
		}
	}
	if victim != "" {
		delete(m.entries, victim)
		cacheEvictions.WithLabelValues("displaced").Inc()
	}
}

func (m *Manager) recordHitLocked(layer string) {
	cacheHits.WithLabelValues(layer).Inc()
	if m.cfg.CollectStats {
		m.hits++
	}
}

func (m *Manager) recordMissLocked() {
	cacheMisses.Inc()
	if m.cfg.CollectStats {
		m.misses++
	}
}

// janitor sweeps expired memory entries every CheckPeriod. Lazy
// check-on-read makes expired entries invisible between sweeps; the
// janitor just reclaims their memory eagerly.
func (m *Manager) janitor() {
	ticker := time.NewTicker(m.cfg.CheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			cacheEvictions.WithLabelValues("expired").Inc()
		}
	}
	cacheEntries.Set(float64(len(m.entries)))
}
