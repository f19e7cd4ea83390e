package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roboclub/clubhouse/internal/logging"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheInterface on memcached. Values are
// stored as JSON like the Redis backend.
type MemcacheService struct {
	client *memcache.Client
}

var _ CacheInterface = (*MemcacheService)(nil)

func NewMemcacheService(servers ...string) *MemcacheService {
	client := memcache.New(servers...)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{client: client}
}

func (m *MemcacheService) Set(_ context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Memcache: failed to marshal value", "key", key, "error", err)
		return
	}

	item := &memcache.Item{Key: key, Value: data, Expiration: int32(ttl / time.Second)}
	if err := m.client.Set(item); err != nil {
		logging.Warn("Memcache: failed to set key", "key", key, "error", err)
	}
}

func (m *MemcacheService) Get(_ context.Context, key string) (any, bool) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Memcache: failed to get key", "key", key, "error", err)
		return nil, false
	}

	var result any
	if err := json.Unmarshal(item.Value, &result); err != nil {
		logging.Warn("Memcache: failed to unmarshal value", "key", key, "error", err)
		return nil, false
	}
	return result, true
}

func (m *MemcacheService) Delete(_ context.Context, key string) {
	if err := m.client.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		logging.Warn("Memcache: failed to delete key", "key", key, "error", err)
	}
}

func (m *MemcacheService) Close() error {
	return m.client.Close()
}
