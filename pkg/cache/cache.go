// Package cache provides the byte caches behind chain fetching and artifact
// rendering: file (CLI default), in-memory LRU, Redis and a null cache.
package cache

import (
	"context"
	"strings"
	"time"
)

// Default TTLs.
const (
	// TTLChain is how long a fetched chain response stays fresh. Matches the
	// upstream API's own cache lifetime.
	TTLChain = time.Hour
	// TTLArtifact applies to rendered outputs, which are keyed by graph hash
	// and never go stale on their own.
	TTLArtifact = 24 * time.Hour
	// TTLHTTP applies to raw HTTP responses cached by integrations clients.
	TTLHTTP = time.Hour
)

// Cache stores opaque byte values with an optional TTL.
// A TTL of zero means the entry does not expire.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ChainKeyOpts are the request parameters that select an upstream chain.
// User ids are not part of the key.
type ChainKeyOpts struct {
	Date string `json:"date,omitempty"`
}

// ArtifactKeyOpts are the render parameters that affect an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys. Swap implementations to namespace a shared cache.
type Keyer interface {
	HTTPKey(namespace, key string) string
	ChainKey(domain string, opts ChainKeyOpts) string
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ChainKey hashes the domain (case-insensitive, trailing dot ignored) with
// the request options.
func (DefaultKeyer) ChainKey(domain string, opts ChainKeyOpts) string {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	return hashKey("chain", d, opts)
}

// ArtifactKey hashes the graph hash with the render options.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

var _ Keyer = DefaultKeyer{}
