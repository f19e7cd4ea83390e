package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roboclub/clubhouse/internal/logging"

	"github.com/redis/go-redis/v9"
)

// redisCachePrefix keeps cache keys apart from sessions and chat channels
// on the shared client.
const redisCachePrefix = "cache:"

// RedisCacheService stores JSON values in Redis.
type RedisCacheService struct {
	client *redis.Client
}

var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService wraps an existing client. The client is shared with
// the session store and chat broker, so Close leaves it open.
func NewRedisCacheService(client *redis.Client) *RedisCacheService {
	return &RedisCacheService{client: client}
}

func (r *RedisCacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal value", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) Get(ctx context.Context, key string) (any, bool) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err)
		return nil, false
	}

	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		logging.Warn("Redis cache: failed to unmarshal value", "key", key, "error", err)
		return nil, false
	}
	return result, true
}

func (r *RedisCacheService) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, redisCachePrefix+key).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) Close() error { return nil }
