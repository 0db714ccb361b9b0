package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

const httpTimeout = 10 * time.Second

// UserAgent is sent with every upstream request.
const UserAgent = "trustchain"

var (
	// ErrNotFound is returned when the upstream has no such resource.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUpstream is returned for non-retryable 4xx responses.
	ErrUpstream = errors.New("upstream error")

	// ErrDecode is returned when a response body is not valid JSON.
	ErrDecode = errors.New("invalid response body")
)

// NewHTTPClient creates an HTTP client with a standard timeout for upstream requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// PathEscape percent-encodes a string for use as a single path segment.
// This is a convenience wrapper around [url.PathEscape].
func PathEscape(s string) string { return url.PathEscape(s) }
