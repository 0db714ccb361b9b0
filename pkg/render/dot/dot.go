package dot

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/trustchain/pkg/chaingraph"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds tooltips to nodes and clusters (shown on hover in SVG).
	Detailed bool
}

// ToDOT converts a compiled graph to Graphviz DOT.
// The same graph and options always produce the same bytes.
func ToDOT(g *chaingraph.Graph, opts Options) string {
	var buf bytes.Buffer
	_ = Write(&buf, g, opts)
	return buf.String()
}

// Write streams the DOT form of g to w.
func Write(w io.Writer, g *chaingraph.Graph, opts Options) error {
	var buf bytes.Buffer
	if g.IsEmpty() {
		fmt.Fprintf(&buf, "digraph %s {}\n", g.Name())
		_, err := w.Write(buf.Bytes())
		return err
	}

	fmt.Fprintf(&buf, "digraph %s {\n", g.Name())
	for _, a := range g.Attrs() {
		fmt.Fprintf(&buf, "  %s=%s;\n", a.Key, quote(a.Value))
	}
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=11, penwidth=1.5];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=9, color=\"#374151\"];\n")

	clusters := g.Clusters()
	for _, c := range clusters {
		buf.WriteString("\n")
		writeCluster(&buf, c, opts)
	}

	var bridges []chaingraph.Edge
	for _, c := range clusters {
		bridges = append(bridges, c.Bridges...)
	}
	if len(bridges) > 0 {
		buf.WriteString("\n")
		for _, e := range bridges {
			writeEdge(&buf, "  ", e)
		}
	}

	if ds := g.Delegations(); len(ds) > 0 {
		buf.WriteString("\n")
		for _, e := range ds {
			writeEdge(&buf, "  ", e)
		}
	}

	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func writeCluster(buf *bytes.Buffer, c chaingraph.Cluster, opts Options) {
	fmt.Fprintf(buf, "  subgraph %s {\n", c.ID)
	fmt.Fprintf(buf, "    label=%s;\n", quote(c.Label))
	buf.WriteString("    style=\"rounded\";\n")
	fmt.Fprintf(buf, "    color=%s;\n", quote(c.Palette.Border))
	fmt.Fprintf(buf, "    fontcolor=%s;\n", quote(c.Palette.Apex))
	buf.WriteString("    penwidth=2;\n")
	if opts.Detailed {
		if tip := clusterTooltip(c); tip != "" {
			fmt.Fprintf(buf, "    tooltip=%s;\n", quote(tip))
		}
	}
	for _, n := range c.Nodes {
		fmt.Fprintf(buf, "    %s [%s];\n", quote(n.ID), strings.Join(nodeAttrs(n, opts), ", "))
	}
	for _, group := range c.SameRank {
		ids := make([]string, len(group))
		for i, id := range group {
			ids[i] = quote(id)
		}
		fmt.Fprintf(buf, "    { rank=same; %s; }\n", strings.Join(ids, "; "))
	}
	for _, e := range c.Edges {
		writeEdge(buf, "    ", e)
	}
	buf.WriteString("  }\n")
}

func clusterTooltip(c chaingraph.Cluster) string {
	if len(c.NameServers) == 0 {
		return c.Tooltip
	}
	return c.Tooltip + "\nNS: " + strings.Join(c.NameServers, ", ")
}

func nodeAttrs(n chaingraph.Node, opts Options) []string {
	var attrs []string
	if n.Shape == chaingraph.ShapeRecord {
		attrs = append(attrs, "label="+recordLabel(n.Fields))
	} else {
		attrs = append(attrs, "label="+quote(n.Label))
	}
	attrs = append(attrs,
		"shape="+string(n.Shape),
		"style="+quote(nodeStyle(n)),
		"fillcolor="+quote(n.Fill),
		"color="+quote(n.Border),
	)
	if n.IsPlaceholder() {
		attrs = append(attrs, "fontcolor="+quote(n.Border))
	}
	if tip := nodeTooltip(n); opts.Detailed && tip != "" {
		attrs = append(attrs, "tooltip="+quote(tip))
	}
	return attrs
}

// nodeTooltip falls back to the field tooltips for record nodes, since DOT
// has no per-port tooltips.
func nodeTooltip(n chaingraph.Node) string {
	if n.Tooltip != "" || len(n.Fields) == 0 {
		return n.Tooltip
	}
	tips := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		if f.Tooltip != "" {
			tips = append(tips, f.Tooltip)
		}
	}
	return strings.Join(tips, "\n\n")
}

func nodeStyle(n chaingraph.Node) string {
	parts := []string{"filled"}
	if n.Shape == chaingraph.ShapeBox {
		parts = append([]string{"rounded"}, parts...)
	}
	if n.Style != "" && n.Style != chaingraph.Solid {
		parts = append(parts, string(n.Style))
	}
	return strings.Join(parts, ",")
}

func writeEdge(buf *bytes.Buffer, indent string, e chaingraph.Edge) {
	fmt.Fprintf(buf, "%s%s -> %s", indent, endpoint(e.From), endpoint(e.To))
	if attrs := edgeAttrs(e); len(attrs) > 0 {
		fmt.Fprintf(buf, " [%s]", strings.Join(attrs, ", "))
	}
	buf.WriteString(";\n")
}

func edgeAttrs(e chaingraph.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, "label="+quote(e.Label))
	}
	if e.Color != "" {
		attrs = append(attrs, "color="+quote(e.Color), "fontcolor="+quote(e.Color))
	}
	if e.Style != "" && e.Style != chaingraph.Solid {
		attrs = append(attrs, "style="+string(e.Style))
	}
	if e.Penwidth > 0 {
		attrs = append(attrs, "penwidth="+strconv.FormatFloat(e.Penwidth, 'g', -1, 64))
	}
	if e.Weight > 0 {
		attrs = append(attrs, "weight="+strconv.Itoa(e.Weight))
	}
	if e.Arrowless {
		attrs = append(attrs, "arrowhead=none")
	}
	if e.NoConstraint {
		attrs = append(attrs, "constraint=false")
	}
	return attrs
}

func endpoint(ep chaingraph.Endpoint) string {
	if ep.Port == "" {
		return quote(ep.Node)
	}
	return quote(ep.Node) + ":" + ep.Port
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`)

// quote renders s as a DOT double-quoted string.
func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`,
	"{", `\{`, "}", `\}`, "|", `\|`, "<", `\<`, ">", `\>`,
)

// recordLabel renders record fields as "<port> text|<port> text".
func recordLabel(fields []chaingraph.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = "<" + f.Port + "> " + recordEscaper.Replace(f.Text)
	}
	return `"` + strings.Join(parts, "|") + `"`
}
