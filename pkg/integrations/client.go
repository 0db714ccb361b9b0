package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/trustchain/pkg/cache"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/httputil"
	"github.com/matzehuels/trustchain/pkg/observability"
)

// Client provides shared HTTP functionality for upstream API clients.
// It handles response caching, retry logic, and common request headers.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	prefix  string
	ttl     time.Duration
	headers map[string]string
	policy  httputil.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryPolicy replaces [httputil.DefaultPolicy].
func WithRetryPolicy(p httputil.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithKeyer replaces the default cache keyer, e.g. with a
// [cache.ScopedKeyer] for per-user isolation.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) { c.keyer = k }
}

// NewClient creates a Client storing responses in c under the namespace
// prefix for ttl. Headers are applied to all requests made through this
// client; pass nil if none are needed. A nil cache disables caching.
func NewClient(c cache.Cache, prefix string, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	client := &Client{
		http:    NewHTTPClient(),
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		prefix:  prefix,
		ttl:     ttl,
		headers: headers,
		policy:  httputil.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	hooks := observability.Cache()
	full := c.keyer.HTTPKey(c.prefix, key)

	if !refresh {
		if err := cache.GetJSON(ctx, c.cache, full, v); err == nil {
			hooks.OnCacheHit(ctx, "http")
			return nil
		}
		hooks.OnCacheMiss(ctx, "http")
	}
	if err := c.policy.Do(ctx, fetch); err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil && c.cache.Set(ctx, full, data, c.ttl) == nil {
		hooks.OnCacheSet(ctx, "http", len(data))
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers. Callers wanting retries wrap it in
// [Client.Cached].
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := splitURL(req.URL)
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, resp.Header.Get("Retry-After")); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func splitURL(u *url.URL) (host, path string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

func checkStatus(code int, retryAfter string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		secs, _ := strconv.Atoi(retryAfter)
		return httputil.Retryable(&tcerrors.RateLimitedError{RetryAfter: secs})
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrUpstream, code)
	}
}

// IsNotFound reports whether err wraps [ErrNotFound].
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
