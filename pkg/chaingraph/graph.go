package chaingraph

import "slices"

// GraphName is the name given to every compiled graph.
const GraphName = "DNSSEC_Chain"

// Ports of the key-set record node.
const (
	PortKSK = "ksk"
	PortZSK = "zsk"
)

// LineStyle is the stroke style of a node outline or an edge.
type LineStyle string

// Line styles.
const (
	Solid  LineStyle = "solid"
	Dashed LineStyle = "dashed"
	Dotted LineStyle = "dotted"
)

// Shape is the outline of a node.
type Shape string

// Node shapes.
const (
	ShapeEllipse Shape = "ellipse"
	ShapeBox     Shape = "box"
	ShapeRecord  Shape = "record"
)

// NodeKind identifies the role a node plays within its zone cluster.
type NodeKind string

// Node kinds.
const (
	KindApex          NodeKind = "apex"
	KindKeySet        NodeKind = "keyset"
	KindDNSKEY        NodeKind = "dnskey"
	KindDNSKEYMissing NodeKind = "dnskey_missing"
	KindDSSet         NodeKind = "dsset"
	KindDSChild       NodeKind = "ds_child"
	KindDSMissing     NodeKind = "ds_missing"
)

// EdgeKind identifies the relationship an edge encodes.
type EdgeKind string

// Edge kinds.
const (
	EdgeHasDNSKEYs    EdgeKind = "has_dnskeys"
	EdgeHasDNSKEYSet  EdgeKind = "has_dnskey_set"
	EdgeKeyLink       EdgeKind = "key_link"
	EdgeMissingDNSKEY EdgeKind = "missing_dnskey"
	EdgeHasDSSet      EdgeKind = "has_ds_set"
	EdgeKeyPair       EdgeKind = "key_pair"
	EdgePublishesDS   EdgeKind = "publishes_ds"
	EdgeSigns         EdgeKind = "signs"
	EdgeValidates     EdgeKind = "validates"
	EdgeMissingDS     EdgeKind = "missing_ds"
	EdgeDelegates     EdgeKind = "delegates"
)

// Attr is a graph-level attribute. Attributes keep their insertion order.
type Attr struct {
	Key   string
	Value string
}

// Field is one port of a record node.
type Field struct {
	Port    string
	Text    string
	Tooltip string
}

// Node is a vertex of the compiled graph.
type Node struct {
	ID      string
	Kind    NodeKind
	Label   string
	Shape   Shape
	Fields  []Field // record nodes only
	Fill    string
	Border  string
	Style   LineStyle
	Tooltip string
}

// IsPlaceholder reports whether the node stands in for missing records.
func (n Node) IsPlaceholder() bool {
	return n.Kind == KindDNSKEYMissing || n.Kind == KindDSMissing
}

// Field returns the record field with the given port.
func (n Node) Field(port string) (Field, bool) {
	for _, f := range n.Fields {
		if f.Port == port {
			return f, true
		}
	}
	return Field{}, false
}

// Endpoint is an edge end: a node and an optional record port.
type Endpoint struct {
	Node string
	Port string
}

// At returns an endpoint on a node without a port.
func At(node string) Endpoint { return Endpoint{Node: node} }

// AtPort returns an endpoint on a record port.
func AtPort(node, port string) Endpoint { return Endpoint{Node: node, Port: port} }

// String formats the endpoint as node or node:port.
func (e Endpoint) String() string {
	if e.Port == "" {
		return e.Node
	}
	return e.Node + ":" + e.Port
}

// Edge is a directed, styled connection between two endpoints.
type Edge struct {
	From         Endpoint
	To           Endpoint
	Kind         EdgeKind
	Label        string
	Color        string // empty means the renderer's default
	Style        LineStyle
	Penwidth     float64 // 0 means the renderer's default
	Weight       int     // 0 means the renderer's default
	Arrowless    bool
	NoConstraint bool // excluded from rank assignment
}

// Cluster holds the nodes and edges representing one zone level.
type Cluster struct {
	ID          string
	Index       int
	Label       string
	ZoneType    string
	Signed      bool
	Broken      bool
	Palette     Palette
	Tooltip     string
	NameServers []string
	Nodes       []Node
	SameRank    [][]string // node IDs that share a rank
	Edges       []Edge     // edges between nodes of this cluster
	Bridges     []Edge     // edges from this cluster into the next level
}

func (c Cluster) clone() Cluster {
	out := c
	out.Nodes = make([]Node, len(c.Nodes))
	for i, n := range c.Nodes {
		n.Fields = slices.Clone(n.Fields)
		out.Nodes[i] = n
	}
	out.SameRank = make([][]string, len(c.SameRank))
	for i, r := range c.SameRank {
		out.SameRank[i] = slices.Clone(r)
	}
	out.NameServers = slices.Clone(c.NameServers)
	out.Edges = slices.Clone(c.Edges)
	out.Bridges = slices.Clone(c.Bridges)
	return out
}

// Graph is the compiled, immutable description of a trust chain.
// All accessors return copies; a Graph is safe for concurrent reads.
type Graph struct {
	name        string
	attrs       []Attr
	clusters    []Cluster
	delegations []Edge
}

// Empty returns the canonical empty graph.
func Empty() *Graph {
	return &Graph{name: GraphName}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// IsEmpty reports whether the graph has no clusters.
func (g *Graph) IsEmpty() bool { return len(g.clusters) == 0 }

// Attrs returns the graph-level attributes in order.
func (g *Graph) Attrs() []Attr { return slices.Clone(g.attrs) }

// Clusters returns the zone clusters in level order.
func (g *Graph) Clusters() []Cluster {
	out := make([]Cluster, len(g.clusters))
	for i, c := range g.clusters {
		out[i] = c.clone()
	}
	return out
}

// Delegations returns the apex-to-apex delegation edges in level order.
func (g *Graph) Delegations() []Edge { return slices.Clone(g.delegations) }

// ClusterCount returns the number of zone clusters.
func (g *Graph) ClusterCount() int { return len(g.clusters) }

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	n := 0
	for _, c := range g.clusters {
		n += len(c.Nodes)
	}
	return n
}

// EdgeCount returns the total number of edges, delegations included.
func (g *Graph) EdgeCount() int {
	n := len(g.delegations)
	for _, c := range g.clusters {
		n += len(c.Edges) + len(c.Bridges)
	}
	return n
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (Node, bool) {
	for _, c := range g.clusters {
		for _, n := range c.Nodes {
			if n.ID == id {
				n.Fields = slices.Clone(n.Fields)
				return n, true
			}
		}
	}
	return Node{}, false
}

// Edges returns every edge in assembly order: each cluster's edges and
// bridges in level order, then the delegations.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, c := range g.clusters {
		out = append(out, c.Edges...)
		out = append(out, c.Bridges...)
	}
	return append(out, g.delegations...)
}

// EdgesOfKind returns the edges of the given kind in assembly order.
func (g *Graph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
