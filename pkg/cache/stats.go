package cache

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	// Hits counts reads served from either tier.
	Hits uint64 `json:"hits"`

	// Misses counts reads that found nothing in either tier.
	Misses uint64 `json:"misses"`

	// Size is the current number of memory tier entries.
	Size int `json:"size"`

	// HitRatio is Hits / (Hits + Misses). It is 0 when no lookups have
	// happened yet; an idle cache reports 0, not NaN.
	HitRatio float64 `json:"hit_ratio"`
}
