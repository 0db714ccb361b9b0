package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned by GetJSON when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// GetJSON reads key and decodes it into v. It returns ErrCacheMiss when the
// key is absent; an entry that no longer decodes is deleted and treated as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return ErrCacheMiss
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
