package chainapi

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/chain"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/integrations"
)

const (
	// Namespace prefixes this client's HTTP cache keys.
	Namespace = "chainapi"

	// DefaultBaseURL is where the chain service listens in a local setup.
	DefaultBaseURL = "http://localhost:8000"
)

// Query selects one chain analysis.
//
// Zero values: UserID and Date are optional and omitted from the request
// when empty. An empty Date asks for the current month.
type Query struct {
	Domain string // Target domain, normalized by [Query.Normalize]
	UserID string // Forwarded for upstream request logging
	Date   string // Month selector in YYYY-MM form
}

// Normalize validates q and returns it with Domain lowercased and stripped
// of a trailing dot. Errors carry INVALID_DOMAIN, INVALID_DATE or
// INVALID_INPUT codes.
func (q Query) Normalize() (Query, error) {
	domain, err := tcerrors.NormalizeDomain(q.Domain)
	if err != nil {
		return q, err
	}
	if err := tcerrors.ValidateUserID(q.UserID); err != nil {
		return q, err
	}
	if err := tcerrors.ValidateMonth(q.Date); err != nil {
		return q, err
	}
	q.Domain = domain
	return q, nil
}

// Path returns the request path and query string, e.g.
// "/chain/example.com?date=2024-05&user_id=u1".
func (q Query) Path() string {
	p := "/chain/" + integrations.PathEscape(q.Domain)
	v := url.Values{}
	if q.UserID != "" {
		v.Set("user_id", q.UserID)
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if len(v) > 0 {
		p += "?" + v.Encode()
	}
	return p
}

// cacheKey ignores UserID: it only tags the upstream log line and does not
// change the analysis.
func (q Query) cacheKey() string {
	if q.Date == "" {
		return q.Domain
	}
	return q.Domain + "@" + q.Date
}

// Client fetches chain analyses from the chain API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a chain API client for baseURL (DefaultBaseURL when
// empty) caching decoded responses in c for ttl. A nil cache disables
// caching.
func NewClient(baseURL string, c cache.Cache, ttl time.Duration, opts ...integrations.Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := tcerrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": integrations.UserAgent,
	}
	return &Client{
		Client:  integrations.NewClient(c, Namespace, ttl, headers, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchChain retrieves the chain analysis selected by q.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns coded errors from [tcerrors]:
//   - INVALID_* when q does not validate (no request is made)
//   - NOT_FOUND for a 404
//   - RATE_LIMITED when retries are exhausted on 429 responses
//   - NETWORK_ERROR or TIMEOUT for transport failures and 5xx responses
//   - UPSTREAM_ERROR for an undecodable body or a {"success": false} reply
//
// A cancelled ctx returns the context error unchanged.
func (c *Client) FetchChain(ctx context.Context, q Query, refresh bool) (*chain.Response, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	var resp chain.Response
	err = c.Cached(ctx, q.cacheKey(), refresh, &resp, func() error {
		return c.fetch(ctx, q, &resp)
	})
	if err != nil {
		return nil, mapError(ctx, q.Domain, err)
	}
	return &resp, nil
}

func (c *Client) fetch(ctx context.Context, q Query, resp *chain.Response) error {
	var env envelope
	if err := c.Get(ctx, c.baseURL+q.Path(), &env); err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "analysis failed"
		}
		return tcerrors.New(tcerrors.ErrCodeUpstream, "chain api: %s: %s", q.Domain, msg)
	}
	*resp = env.Response
	return nil
}

// envelope is the chain service reply: a Response plus a success flag and,
// on failure, an error message. A missing flag counts as success.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	chain.Response
}

func mapError(ctx context.Context, domain string, err error) error {
	var coded *tcerrors.Error
	var rl *tcerrors.RateLimitedError
	switch {
	case errors.As(err, &coded), errors.As(err, &rl):
		return err
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return tcerrors.Wrap(tcerrors.ErrCodeTimeout, err, "chain api: %s", domain)
	case integrations.IsNotFound(err):
		return tcerrors.Wrap(tcerrors.ErrCodeNotFound, err, "no chain for %s", domain)
	case errors.Is(err, integrations.ErrDecode), errors.Is(err, integrations.ErrUpstream):
		return tcerrors.Wrap(tcerrors.ErrCodeUpstream, err, "chain api: %s", domain)
	default:
		return tcerrors.Wrap(tcerrors.ErrCodeNetwork, err, "chain api: %s", domain)
	}
}
