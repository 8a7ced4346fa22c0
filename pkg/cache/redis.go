package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// redisKeyPrefix namespaces our entries in a shared Redis instance.
const redisKeyPrefix = "commerce:cache:"

// redisStore is the shared persistent tier for multi-process deployments.
// Entries carry their own expiresAt and additionally get a Redis TTL so
// Redis reclaims them without our janitor's help.
type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{
		client: client,
		logger: log.With().Str("component", "cache").Str("store", "redis").Logger(),
		now:    time.Now,
	}
}

func (s *redisStore) redisKey(key string) string {
	return redisKeyPrefix + key
}

func (s *redisStore) Load(ctx context.Context, key string) (*storedEntry, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrStoreMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry storedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_, _ = s.Delete(ctx, key)
		return nil, ErrStoreMiss
	}

	if entry.expired(s.now()) {
		_, _ = s.Delete(ctx, key)
		return nil, ErrStoreMiss
	}

	return &entry, nil
}

func (s *redisStore) Store(ctx context.Context, key string, entry *storedEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	ttl := entry.ttlAt(s.now())
	if entry.ExpiresAt > 0 && ttl <= 0 {
		// Already expired, don't persist.
		return nil
	}

	if err := s.client.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.Del(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return removed > 0, nil
}

func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(redisKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

func (s *redisStore) Clear(ctx context.Context) error {
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
