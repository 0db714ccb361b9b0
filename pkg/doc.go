// Package pkg provides the core libraries for trustchain, a compiler from
// DNSSEC chain-of-trust analyses to graphs.
//
// # Overview
//
// A chain analysis lists one level per zone from the root down to the
// queried domain, each with its DNSKEY and DS records and the security
// verdict of the analysis service. trustchain turns it into a graph with
// one cluster per zone: the zone apex, its key set and the DS record that
// its parent publishes for the next zone down.
//
// # Architecture
//
// The data flow:
//
//	chain API (or a local JSON file)
//	         ↓
//	    [chain] package (decode the analysis)
//	         ↓
//	    [chaingraph] package (normalize levels, build clusters and edges)
//	         ↓
//	    [render] packages (DOT, SVG, PDF, PNG, flow JSON)
//
// [pipeline] runs the three stages with caching and validation shared by
// the CLI, the HTTP server and the interactive viewer.
//
// # Quick Start
//
//	resp, _ := chain.ReadFile("example.com.json")
//	g := chaingraph.Compile(resp)
//	src := dot.ToDOT(g, dot.Options{})
//	svg, _ := dot.RenderSVG(ctx, src)
//
// # Main Packages
//
// ## Domain
//
// [chain] - Wire types of a chain analysis and decoding from JSON.
//
// [chaingraph] - The graph model and the compiler from a chain analysis.
// Placeholder nodes keep clusters aligned when a level has no key or DS.
//
// ## Rendering
//
// [render/dot] - Graphviz DOT serialization and in-process SVG rendering.
//
// [render/flow] - Node/edge documents for interactive diagram front ends.
//
// [render] - SVG to PDF/PNG conversion.
//
// ## Infrastructure
//
// [pipeline] - Fetch, compile and render with cached chains and artifacts.
//
// [cache] - Cache backends: file (CLI), memory (LRU), redis (shared) and null.
//
// [integrations] - Retrying, caching HTTP client and the [chainapi] client.
//
// [session] - Last-request-wins loading for interactive viewers.
//
// [observability] - Hooks for metrics on fetches, renders and cache use.
//
// [errors] - Coded errors and input validation (domains, months, user ids).
//
// [chain]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/chain
// [chaingraph]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/chaingraph
// [render]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/render
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/render/dot
// [render/flow]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/render/flow
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/cache
// [integrations]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/integrations
// [chainapi]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/integrations/chainapi
// [session]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/trustchain/pkg/errors
package pkg
