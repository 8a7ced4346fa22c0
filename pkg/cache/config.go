package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the cache manager configuration.
type Config struct {
	// DefaultTTL applies to Set calls without an explicit TTL.
	DefaultTTL time.Duration

	// CheckPeriod is how often the janitor sweeps expired memory entries.
	CheckPeriod time.Duration

	// MaxEntries bounds the memory tier. Inserting into a full cache
	// displaces the least recently accessed entry.
	MaxEntries int

	// Persistent enables the durable tier.
	Persistent bool

	// PersistentDir is where the filesystem store keeps its entry files.
	PersistentDir string

	// Redis, when set together with Persistent, selects the shared Redis
	// store instead of the filesystem one.
	Redis *redis.Client

	// CollectStats enables hit/miss accounting. DefaultConfig enables it.
	CollectStats bool
}

// DefaultConfig returns the default cache configuration: 60s TTL, 120s
// sweep period, 1000 entries, stats on, persistence off.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:    60 * time.Second,
		CheckPeriod:   120 * time.Second,
		MaxEntries:    1000,
		Persistent:    false,
		PersistentDir: defaultPersistentDir(),
		CollectStats:  true,
	}
}

func defaultPersistentDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "commerce-api-client", "cache")
	}
	return filepath.Join(home, ".commerce-api-client", "cache")
}

// normalize fills zero or negative fields with defaults.
func (c Config) normalize() Config {
	defaults := DefaultConfig()
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = defaults.DefaultTTL
	}
	if c.CheckPeriod <= 0 {
		c.CheckPeriod = defaults.CheckPeriod
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = defaults.MaxEntries
	}
	if c.PersistentDir == "" {
		c.PersistentDir = defaults.PersistentDir
	}
	return c
}
