package chaingraph

import "github.com/matzehuels/trustchain/pkg/chain"

// Compile converts a chain response into a graph. A nil response or one
// without levels yields [Empty]. Compile never fails: missing records are
// drawn as placeholder nodes.
func Compile(resp *chain.Response) *Graph {
	if resp.IsEmpty() {
		return Empty()
	}
	levels := resp.Levels
	g := &Graph{
		name:     GraphName,
		attrs:    defaultAttrs(),
		clusters: make([]Cluster, 0, len(levels)),
	}
	for i := range levels {
		info := Normalize(levels[i], i, len(levels))
		g.clusters = append(g.clusters, buildCluster(levels, info))
	}
	g.delegations = composeDelegations(len(levels))
	return g
}

// NormalizeAll resolves every level of resp.
func NormalizeAll(resp *chain.Response) []LevelInfo {
	if resp.IsEmpty() {
		return nil
	}
	out := make([]LevelInfo, len(resp.Levels))
	for i, l := range resp.Levels {
		out[i] = Normalize(l, i, len(resp.Levels))
	}
	return out
}

func defaultAttrs() []Attr {
	return []Attr{
		{Key: "rankdir", Value: "TB"},
		{Key: "compound", Value: "true"},
		{Key: "newrank", Value: "true"},
		{Key: "splines", Value: "spline"},
		{Key: "nodesep", Value: "0.6"},
		{Key: "ranksep", Value: "0.7"},
		{Key: "fontname", Value: "Helvetica"},
		{Key: "bgcolor", Value: "transparent"},
	}
}
