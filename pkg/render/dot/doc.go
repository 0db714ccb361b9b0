// Package dot serializes compiled trust-chain graphs as Graphviz DOT and
// renders them to SVG.
//
// # Usage
//
//	g := chaingraph.Compile(resp)
//	src := dot.ToDOT(g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// For PDF or PNG output:
//
//	pdf, err := dot.RenderPDF(ctx, src)
//	png, err := dot.RenderPNG(ctx, src, 2.0)
//
// # Layout
//
// Every zone level becomes a "cluster_<i>" subgraph. Key sets are record
// nodes with "ksk" and "zsk" ports. Edges that leave a cluster are written
// after all clusters so Graphviz never declares a node in the wrong
// subgraph, and delegation edges come last.
//
// An empty graph serializes to "digraph DNSSEC_Chain {}".
//
// # Dependencies
//
// SVG rendering runs in process through [github.com/goccy/go-graphviz].
// PDF and PNG conversion requires librsvg (rsvg-convert).
package dot
