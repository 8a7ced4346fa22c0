package cache

import (
	"time"
)

// Entry is a memory tier cache entry. Access metadata is mutated on every
// read while the manager lock is held.
type Entry struct {
	// Value is the cached value as stored by Set.
	Value any

	// CreatedAt is when the entry was written.
	CreatedAt time.Time

	// LastAccessedAt is updated on every read; it drives displacement
	// when the memory tier is full.
	LastAccessedAt time.Time

	// AccessCount is the number of reads served from this entry.
	AccessCount int64

	// ExpiresAt is when the entry must be treated as absent.
	ExpiresAt time.Time
}

// expired reports whether the entry's TTL has elapsed at the given time.
func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// touch records a read.
func (e *Entry) touch(now time.Time) {
	e.LastAccessedAt = now
	e.AccessCount++
}
