package repository

import (
	"context"
	"time"
)

// SessionCache is a key-value store with per-key TTL. Get returns
// domain.ErrCacheMiss for absent or expired keys.
type SessionCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
