package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"

	DefaultTTL = 30 * time.Minute
)

// ErrNotFound is returned when a key is unknown or expired.
var ErrNotFound = errors.New("preview not found")

// PreviewCache holds rendered preview images by key for a limited time.
type PreviewCache interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// NewPreviewCache creates the cache of the given type. addr is only used for redis.
func NewPreviewCache(cacheType, addr string, ttl time.Duration) (PreviewCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch cacheType {
	case TypeMemory, "":
		return NewMemoryCache(ttl), nil
	case TypeRedis:
		c, err := NewRedisCache(addr, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}
