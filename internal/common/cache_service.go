package common

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService is the in-process backend.
type CacheService struct {
	cache *cache.Cache
}

var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultTTL, cleanupInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultTTL, cleanupInterval)}
}

func (cs *CacheService) Set(_ context.Context, key string, value any, ttl time.Duration) {
	cs.cache.Set(key, value, ttl)
}

func (cs *CacheService) Get(_ context.Context, key string) (any, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(_ context.Context, key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) Close() error { return nil }
