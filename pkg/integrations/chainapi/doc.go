// Package chainapi provides a client for the DNSSEC chain analysis service.
//
// The service walks the delegation path from the root to a domain and
// reports, per zone, its DNSKEY and DS records and whether the chain of
// trust holds. This package only fetches and decodes that report; turning
// it into a graph is the job of [chaingraph].
//
// # Usage
//
//	client, err := chainapi.NewClient("https://dnssec.example.net", c, cache.TTLHTTP)
//	resp, err := client.FetchChain(ctx, chainapi.Query{Domain: "example.com"}, false)
//
// Requests go to GET {base}/chain/{domain} with optional user_id and date
// (YYYY-MM) query parameters. Responses are cached per domain and month;
// the user id is only forwarded.
//
// [chaingraph]: github.com/matzehuels/trustchain/pkg/chaingraph
package chainapi
