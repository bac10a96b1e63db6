// internal/cache/cache.go
// Key/value backends used to memoize compatibility scores and swipe feeds

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned by backends that cannot reach their store.
	ErrUnavailable = errors.New("cache backend unavailable")
)

// Backend is a string keyed store with per-entry expiry.
// Get reports a miss with hit == false and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, hit bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// getJSON decodes a cached value into dst. Undecodable entries are dropped and
// reported as a miss.
func getJSON(ctx context.Context, b Backend, key string, dst any) (bool, error) {
	raw, hit, err := b.Get(ctx, key)
	if err != nil || !hit {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		_ = b.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func setJSON(ctx context.Context, b Backend, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return b.Set(ctx, key, raw, ttl)
}

// NoopBackend never stores anything. Useful in tests and when caching is disabled.
type NoopBackend struct{}

func (NoopBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopBackend) Del(context.Context, ...string) error { return nil }
