// Package integrations provides HTTP clients for upstream APIs.
//
// # Overview
//
// This package contains the shared [Client] used by API-specific
// subpackages:
//
//   - [chainapi]: the DNSSEC chain analysis service
//
// # Client Pattern
//
// Upstream clients follow a consistent pattern:
//
//	client, err := chainapi.NewClient(baseURL, c, cache.TTLHTTP)
//	resp, err := client.FetchChain(ctx, chainapi.Query{Domain: "example.com"}, false)
//
// Clients handle:
//   - HTTP requests with retry and rate limiting
//   - Response caching through any [cache.Cache] backend
//   - API-specific decoding and error mapping
//
// # Shared Infrastructure
//
// [Client.Cached] wraps a fetch in the retry policy and stores the decoded
// value as JSON. Status codes map to sentinel errors: 404 to [ErrNotFound],
// 429 and 5xx to retryable errors, other 4xx to [ErrUpstream]. Requests and
// cache lookups are reported through [observability] hooks.
//
// [chainapi]: github.com/matzehuels/trustchain/pkg/integrations/chainapi
// [cache.Cache]: github.com/matzehuels/trustchain/pkg/cache.Cache
// [observability]: github.com/matzehuels/trustchain/pkg/observability
package integrations
