package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

// CacheKeyPrefix namespaces every key EduTrack writes to Redis.
const CacheKeyPrefix = "edutrack:"

const scanBatch = 100

// CacheRepository keeps JSON encoded aggregates in Redis under
// CacheKeyPrefix. With a nil client reads miss and writes are dropped.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository wraps client.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get decodes the value stored at key into dest, or returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("cache get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %q: %w", key, err)
	}
	return nil
}

// Set encodes value as JSON and stores it for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	return r.client.Set(ctx, CacheKeyPrefix+key, raw, ttl).Err()
}

// DeleteByPattern unlinks every key matching the glob pattern, in batches.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}
	var (
		cursor uint64
		keys   []string
		err    error
	)
	for {
		keys, cursor, err = r.client.Scan(ctx, cursor, CacheKeyPrefix+pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("cache scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache unlink %q: %w", pattern, err)
			}
		}
		if cursor == 0 {
			return nil
		}
	}
}
