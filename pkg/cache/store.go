package cache

import (
	"context"
	"errors"
	"time"
)

// ErrStoreMiss indicates the key is absent from the persistent tier.
var ErrStoreMiss = errors.New("persistent cache miss")

// storedEntry is the durable representation of a cache entry. Timestamps
// are epoch milliseconds so files stay readable across processes and
// languages.
type storedEntry struct {
	Value     any   `json:"value"`
	ExpiresAt int64 `json:"expiresAt,omitempty"`
	CreatedAt int64 `json:"createdAt"`
}

// expired reports whether the stored entry's deadline has passed.
func (e *storedEntry) expired(now time.Time) bool {
	return e.ExpiresAt > 0 && now.UnixMilli() >= e.ExpiresAt
}

// ttlAt returns the remaining lifetime at the given time, 0 when expired.
func (e *storedEntry) ttlAt(now time.Time) time.Duration {
	if e.ExpiresAt <= 0 {
		return 0
	}
	remaining := time.Duration(e.ExpiresAt-now.UnixMilli()) * time.Millisecond
	if remaining < 0 {
		return 0
	}
	return remaining
}

// persistentStore is the durable tier behind the memory cache. Both
// implementations treat corruption and IO failures as misses; durability
// is advisory, never a correctness requirement.
type persistentStore interface {
	// Load returns the stored entry or ErrStoreMiss. Expired entries are
	// removed on read and reported as misses.
	Load(ctx context.Context, key string) (*storedEntry, error)

	// Store persists the entry, replacing any previous value.
	Store(ctx context.Context, key string, entry *storedEntry) error

	// Delete removes the key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
