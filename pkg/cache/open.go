package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string // file
	Size    int    // memory
	Redis   RedisOptions
}

// Open creates the cache described by opts. An empty backend means file.
func Open(ctx context.Context, opts Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case "", BackendFile:
		c, err = NewFileCache(opts.Dir)
	case BackendMemory:
		c, err = NewMemoryCache(opts.Size)
	case BackendRedis:
		c, err = NewRedisCache(ctx, opts.Redis)
	case BackendNone:
		c = NewNullCache()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
