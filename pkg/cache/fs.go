package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const cacheFileExt = ".cache"

// fsStore persists one JSON file per key under a directory. Keys are
// base64url-encoded into filenames, which is injective, so distinct keys
// never collide; files are unlocked shared state, concurrent writers to
// the same key interleave with last write wins and no corruption check.
type fsStore struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// newFSStore creates the directory if needed.
func newFSStore(dir string) (*fsStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &fsStore{
		dir:    dir,
		logger: log.With().Str("component", "cache").Str("store", "fs").Logger(),
		now:    time.Now,
	}, nil
}

func (s *fsStore) path(key string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(key))
	return filepath.Join(s.dir, name+cacheFileExt)
}

func (s *fsStore) Load(_ context.Context, key string) (*storedEntry, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStoreMiss
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var entry storedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt file: drop it and report a miss.
		_ = os.Remove(s.path(key))
		return nil, ErrStoreMiss
	}

	if entry.expired(s.now()) {
		_ = os.Remove(s.path(key))
		return nil, ErrStoreMiss
	}

	return &entry, nil
}

func (s *fsStore) Store(_ context.Context, key string, entry *storedEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (s *fsStore) Delete(_ context.Context, key string) (bool, error) {
	err := os.Remove(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove cache file: %w", err)
	}
	return true, nil
}

func (s *fsStore) Keys(_ context.Context) ([]string, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, cacheFileExt) {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, cacheFileExt))
		if err != nil {
			s.logger.Debug().Str("file", name).Msg("Skipping undecodable cache file")
			continue
		}
		keys = append(keys, string(raw))
	}
	return keys, nil
}

func (s *fsStore) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
