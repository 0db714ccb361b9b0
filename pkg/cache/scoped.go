package cache

// ScopedKeyer prefixes every key from an inner Keyer. The server uses it to
// keep caches of different upstream APIs apart when they share a backend.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:"+cache.Hash([]byte(apiURL))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey returns the prefixed HTTP key.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ChainKey returns the prefixed chain key.
func (k *ScopedKeyer) ChainKey(domain string, opts ChainKeyOpts) string {
	return k.prefix + k.inner.ChainKey(domain, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
