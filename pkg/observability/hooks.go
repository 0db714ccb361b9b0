// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through the registered hooks; binaries decide what
// backs them. The defaults are no-ops, so packages like pipeline and
// integrations never depend on a metrics framework. The HTTP server
// registers Prometheus-backed hooks at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetPipelineHooks(metrics)
//	observability.SetCacheHooks(metrics)
//	observability.SetHTTPHooks(metrics)
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnFetchStart(ctx, domain)
//	// ... fetch chain ...
//	observability.Pipeline().OnFetchComplete(ctx, domain, levels, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the fetch, compile and render stages.
type PipelineHooks interface {
	OnFetchStart(ctx context.Context, domain string)
	OnFetchComplete(ctx context.Context, domain string, levels int, duration time.Duration, err error)

	OnCompileComplete(ctx context.Context, domain string, clusters, nodes, edges int, duration time.Duration)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)

	// OnSuperseded records a load whose result was discarded because a
	// newer load started.
	OnSuperseded(ctx context.Context, domain string)
}

// CacheHooks receives events from cache lookups. keyType is "chain",
// "artifact" or "http".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from outgoing chain API requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure (no response).
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores all pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnFetchStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnFetchComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnCompileComplete(context.Context, string, int, int, int, time.Duration) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}
func (NoopPipelineHooks) OnSuperseded(context.Context, string)                             {}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores all HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults. Tests use it to isolate hook state.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
