package flow

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/trustchain/pkg/chain"
	"github.com/matzehuels/trustchain/pkg/chaingraph"
)

// Grid geometry in pixels.
const (
	NodeWidth  = 180.0
	NodeHeight = 56.0
	ColGap     = 40.0
	RowGap     = 50.0
	Padding    = 30.0
	ClusterGap = 80.0
)

// Node types understood by the front end.
const (
	TypeGroup  = "group"
	TypeZone   = "zone"
	TypeKeySet = "keyset"
	TypeRecord = "record"
)

// Document is the node/edge list handed to a diagram UI.
type Document struct {
	Nodes   []Node         `json:"nodes"`
	Edges   []Edge         `json:"edges"`
	Summary *chain.Summary `json:"summary,omitempty"`
}

// Position is relative to the parent group for child nodes.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a positioned diagram node.
type Node struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	ParentID string    `json:"parentId,omitempty"`
	Extent   string    `json:"extent,omitempty"`
	Position Position  `json:"position"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Data     NodeData  `json:"data"`
	Style    NodeStyle `json:"style"`
}

// NodeData is what the front end shows inside a node.
type NodeData struct {
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Tooltip  string   `json:"tooltip,omitempty"`
	Handles  []Handle `json:"handles,omitempty"`
	ZoneType string   `json:"zoneType,omitempty"`
	Signed   *bool    `json:"signed,omitempty"`
	Broken   bool     `json:"broken,omitempty"`
}

// Handle is a named connection point on a key-set node.
type Handle struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Tooltip string `json:"tooltip,omitempty"`
}

// NodeStyle holds CSS-like properties.
type NodeStyle struct {
	Background  string `json:"background"`
	BorderColor string `json:"borderColor"`
	BorderStyle string `json:"borderStyle"`
}

// Edge is a styled connection.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Label        string    `json:"label,omitempty"`
	Kind         string    `json:"kind"`
	MarkerEnd    string    `json:"markerEnd,omitempty"`
	Style        EdgeStyle `json:"style"`
}

// EdgeStyle holds SVG stroke properties.
type EdgeStyle struct {
	Stroke          string  `json:"stroke"`
	StrokeWidth     float64 `json:"strokeWidth"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
}

// Option configures [Build] and [RenderJSON].
type Option func(*renderer)

type renderer struct {
	summary *chain.Summary
	indent  bool
}

// WithSummary embeds the upstream chain summary in the document.
func WithSummary(s *chain.Summary) Option { return func(r *renderer) { r.summary = s } }

// WithIndent pretty-prints the JSON output.
func WithIndent() Option { return func(r *renderer) { r.indent = true } }

// Build lays out g on a grid. Clusters stack top to bottom in level order.
func Build(g *chaingraph.Graph, opts ...Option) Document {
	r := renderer{}
	for _, opt := range opts {
		opt(&r)
	}

	doc := Document{Nodes: []Node{}, Edges: []Edge{}, Summary: r.summary}
	y := 0.0
	for _, c := range g.Clusters() {
		h := clusterHeight(c)
		signed := c.Signed
		doc.Nodes = append(doc.Nodes, Node{
			ID:       c.ID,
			Type:     TypeGroup,
			Position: Position{X: 0, Y: y},
			Width:    clusterWidth,
			Height:   h,
			Data: NodeData{
				Label:    c.Label,
				Kind:     "cluster",
				Tooltip:  c.Tooltip,
				ZoneType: c.ZoneType,
				Signed:   &signed,
				Broken:   c.Broken,
			},
			Style: NodeStyle{Background: "transparent", BorderColor: c.Palette.Border, BorderStyle: "solid"},
		})
		for _, n := range c.Nodes {
			doc.Nodes = append(doc.Nodes, childNode(c.ID, n))
		}
		y += h + ClusterGap
	}

	for i, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edge(i, e))
	}
	return doc
}

// RenderJSON builds the document for g and marshals it.
func RenderJSON(g *chaingraph.Graph, opts ...Option) ([]byte, error) {
	r := renderer{}
	for _, opt := range opts {
		opt(&r)
	}
	doc := Build(g, opts...)
	if r.indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

const clusterWidth = 2*Padding + 3*NodeWidth + 2*ColGap

// cell returns the grid cell of a node inside its cluster:
// apex on top, key material and DS set on the second row, the DS for the
// child below the DS set.
func cell(k chaingraph.NodeKind) (col, row int) {
	switch k {
	case chaingraph.KindApex:
		return 1, 0
	case chaingraph.KindKeySet:
		return 0, 1
	case chaingraph.KindDNSKEY, chaingraph.KindDNSKEYMissing:
		return 1, 1
	case chaingraph.KindDSSet:
		return 2, 1
	default:
		return 2, 2
	}
}

func clusterHeight(c chaingraph.Cluster) float64 {
	rows := 0
	for _, n := range c.Nodes {
		if _, r := cell(n.Kind); r > rows {
			rows = r
		}
	}
	rows++
	return 2*Padding + float64(rows)*NodeHeight + float64(rows-1)*RowGap
}

func childNode(parent string, n chaingraph.Node) Node {
	col, row := cell(n.Kind)
	out := Node{
		ID:       n.ID,
		Type:     TypeRecord,
		ParentID: parent,
		Extent:   "parent",
		Position: Position{
			X: Padding + float64(col)*(NodeWidth+ColGap),
			Y: Padding + float64(row)*(NodeHeight+RowGap),
		},
		Width:  NodeWidth,
		Height: NodeHeight,
		Data: NodeData{
			Label:   n.Label,
			Kind:    string(n.Kind),
			Tooltip: n.Tooltip,
		},
		Style: NodeStyle{
			Background:  n.Fill,
			BorderColor: n.Border,
			BorderStyle: borderStyle(n.Style),
		},
	}
	switch n.Kind {
	case chaingraph.KindApex:
		out.Type = TypeZone
	case chaingraph.KindKeySet:
		out.Type = TypeKeySet
		for _, f := range n.Fields {
			out.Data.Handles = append(out.Data.Handles, Handle{ID: f.Port, Label: f.Text, Tooltip: f.Tooltip})
		}
	}
	return out
}

func borderStyle(s chaingraph.LineStyle) string {
	if s == "" {
		return string(chaingraph.Solid)
	}
	return string(s)
}

func edge(i int, e chaingraph.Edge) Edge {
	out := Edge{
		ID:           fmt.Sprintf("e%d-%s-%s", i, e.From.Node, e.To.Node),
		Source:       e.From.Node,
		Target:       e.To.Node,
		SourceHandle: e.From.Port,
		TargetHandle: e.To.Port,
		Label:        e.Label,
		Kind:         string(e.Kind),
		Style: EdgeStyle{
			Stroke:      e.Color,
			StrokeWidth: e.Penwidth,
		},
	}
	if out.Style.Stroke == "" {
		out.Style.Stroke = chaingraph.ColorNeutral
	}
	if out.Style.StrokeWidth == 0 {
		out.Style.StrokeWidth = 1.5
	}
	switch e.Style {
	case chaingraph.Dashed:
		out.Style.StrokeDasharray = "6 4"
	case chaingraph.Dotted:
		out.Style.StrokeDasharray = "2 4"
	}
	if !e.Arrowless {
		out.MarkerEnd = "arrowclosed"
	}
	return out
}
