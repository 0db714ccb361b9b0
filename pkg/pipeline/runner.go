package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/chain"
	"github.com/matzehuels/trustchain/pkg/chaingraph"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, server and TUI use this to avoid duplicating caching logic.
// It is the only layer caching fetched chains, so fetchers should not
// cache on their own.
//
// The Runner is stateless except for the cache, fetcher and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Fetcher  Fetcher
	Logger   *log.Logger
	ChainTTL time.Duration // lifetime of cached chains, cache.TTLChain by default
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// A nil fetcher restricts the runner to local input files.
func NewRunner(c cache.Cache, keyer cache.Keyer, fetcher Fetcher, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Fetcher:  fetcher,
		Logger:   logger,
		ChainTTL: cache.TTLChain,
	}
}

// Execute runs the complete fetch → compile → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Fetch
	fetchStart := time.Now()
	resp, fetchHit, err := r.FetchWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Chain = resp
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.Levels = len(resp.Levels)
	result.CacheInfo.FetchHit = fetchHit

	r.Logger.Info("fetched chain",
		"domain", opts.Domain,
		"levels", len(resp.Levels),
		"cached", fetchHit,
		"duration", result.Stats.FetchTime)

	// Stage 2: Compile
	compileStart := time.Now()
	g := r.Compile(ctx, opts.Domain, resp)
	result.Graph = g
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.Clusters = g.ClusterCount()
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.RenderWithCacheInfo(ctx, g, resp.Summary, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.GraphHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// FetchWithCacheInfo loads the chain from opts.Input or the fetcher and
// reports whether it came from the cache. Local files are never cached.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, opts Options) (*chain.Response, bool, error) {
	if err := opts.ValidateForFetch(); err != nil {
		return nil, false, err
	}
	if opts.Input != "" {
		resp, err := LoadFile(opts.Input)
		return resp, false, err
	}
	if r.Fetcher == nil {
		return nil, false, tcerrors.New(tcerrors.ErrCodeInternal, "no chain source configured")
	}

	hooks := observability.Cache()
	key := r.Keyer.ChainKey(opts.Domain, opts.ChainKeyOpts())

	if !opts.Refresh {
		var cached chain.Response
		if err := cache.GetJSON(ctx, r.Cache, key, &cached); err == nil {
			hooks.OnCacheHit(ctx, "chain")
			return &cached, true, nil
		}
		hooks.OnCacheMiss(ctx, "chain")
	}

	pipe := observability.Pipeline()
	pipe.OnFetchStart(ctx, opts.Domain)
	start := time.Now()
	resp, err := r.Fetcher.FetchChain(ctx, opts.Query(), opts.Refresh)
	if err != nil {
		pipe.OnFetchComplete(ctx, opts.Domain, 0, time.Since(start), err)
		return nil, false, err
	}
	pipe.OnFetchComplete(ctx, opts.Domain, len(resp.Levels), time.Since(start), nil)

	data, err := json.Marshal(resp)
	if err == nil {
		err = r.Cache.Set(ctx, key, data, r.ChainTTL)
	}
	if err != nil {
		r.Logger.Warn("cache chain", "domain", opts.Domain, "err", err)
	} else {
		hooks.OnCacheSet(ctx, "chain", len(data))
	}
	return resp, false, nil
}

// Compile builds the graph for resp and reports its size to the
// pipeline hooks. It never fails.
func (r *Runner) Compile(ctx context.Context, domain string, resp *chain.Response) *chaingraph.Graph {
	start := time.Now()
	g := chaingraph.Compile(resp)
	elapsed := time.Since(start)

	observability.Pipeline().OnCompileComplete(ctx, domain,
		g.ClusterCount(), g.NodeCount(), g.EdgeCount(), elapsed)
	r.Logger.Debug("compiled chain",
		"domain", domain,
		"clusters", g.ClusterCount(),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", elapsed)
	return g
}

// RenderWithCacheInfo generates artifacts with caching and returns the
// graph content hash and cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *chaingraph.Graph, summary *chain.Summary, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}

	hash := ContentHash(g, summary)
	hooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		hooks.OnCacheHit(ctx, "artifact")
		return artifacts, hash, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	pipe := observability.Pipeline()
	pipe.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, g, summary, opts)
	pipe.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if r.Cache.Set(ctx, key, data, cache.TTLArtifact) == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, hash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
