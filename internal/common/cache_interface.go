package common

import (
	"context"
	"time"
)

// CacheInterface is a best-effort key/value cache. Backend failures are
// logged and reported as misses so callers fall through to the store.
type CacheInterface interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	// Get returns what was stored under key. Remote backends hand back the
	// JSON-decoded form, so a map[string]string comes back as
	// map[string]interface{}.
	Get(ctx context.Context, key string) (any, bool)
	Delete(ctx context.Context, key string)
	// Close releases connections the cache owns.
	Close() error
}

// GetOrLoad returns the cached value for key, or calls load and caches
// its result for ttl. hit reports whether load was skipped. Load errors
// are returned and nothing is cached.
func GetOrLoad(ctx context.Context, c CacheInterface, key string, ttl time.Duration, load func(ctx context.Context) (any, error)) (val any, hit bool, err error) {
	if v, found := c.Get(ctx, key); found {
		return v, true, nil
	}

	v, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	c.Set(ctx, key, v, ttl)
	return v, false, nil
}
