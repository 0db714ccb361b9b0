package chaingraph

import "github.com/matzehuels/trustchain/pkg/chain"

const (
	validatesPenwidth = 3
	validatesWeight   = 2
)

// composeEdges returns the edges of level info.Index. Edges ending in the
// next level are returned separately as bridges.
func composeEdges(levels []chain.Level, info LevelInfo) (edges, bridges []Edge) {
	idx := info.Index
	apex, keys := apexID(idx), keySetID(idx)

	switch {
	case idx == 0:
		if info.HasDNSKEY {
			edges = append(edges, Edge{
				From:  At(apex),
				To:    AtPort(keys, PortKSK),
				Kind:  EdgeHasDNSKEYs,
				Label: "has DNSKEYs",
				Style: Solid,
			})
		}
	case info.HasDNSKEY:
		dnskey := dnskeyID(idx)
		edges = append(edges,
			Edge{From: At(apex), To: At(dnskey), Kind: EdgeHasDNSKEYSet, Label: "has", Style: Solid},
			Edge{From: At(dnskey), To: AtPort(keys, PortKSK), Kind: EdgeKeyLink, Style: Solid},
			Edge{From: At(dnskey), To: AtPort(keys, PortZSK), Kind: EdgeKeyLink, Style: Solid},
		)
	default:
		edges = append(edges, Edge{
			From:  At(apex),
			To:    At(keys),
			Kind:  EdgeMissingDNSKEY,
			Color: ColorError,
			Style: Dashed,
		})
	}

	edges = append(edges,
		Edge{From: At(apex), To: At(dsSetID(idx)), Kind: EdgeHasDSSet, Label: "has", Style: Solid},
		Edge{
			From:         AtPort(keys, PortKSK),
			To:           AtPort(keys, PortZSK),
			Kind:         EdgeKeyPair,
			Style:        Dotted,
			Arrowless:    true,
			NoConstraint: true,
		},
	)

	if info.Last {
		return edges, nil
	}

	child := levels[idx+1]
	dsSet, dsChild := dsSetID(idx), dsChildID(idx)
	if _, ok := child.FirstDS(); !ok {
		edges = append(edges, Edge{
			From:  At(dsSet),
			To:    At(dsChild),
			Kind:  EdgeMissingDS,
			Color: ColorError,
			Style: Dashed,
		})
		return edges, nil
	}

	edges = append(edges,
		Edge{From: At(dsSet), To: At(dsChild), Kind: EdgePublishesDS, Color: ColorNeutral, Style: Solid},
		Edge{From: AtPort(keys, PortZSK), To: At(dsChild), Kind: EdgeSigns, Label: "signs", Color: ColorTrust, Style: Solid},
	)
	validates := Edge{
		From:     At(dsChild),
		To:       AtPort(keySetID(idx+1), PortKSK),
		Kind:     EdgeValidates,
		Label:    "validates",
		Color:    ColorTrust,
		Style:    Solid,
		Penwidth: validatesPenwidth,
		Weight:   validatesWeight,
	}
	if child.DNSKEYBreak() {
		validates.Color = ColorError
		validates.Style = Dashed
	}
	return edges, []Edge{validates}
}

// composeDelegations links every pair of adjacent apexes.
func composeDelegations(n int) []Edge {
	if n < 2 {
		return nil
	}
	out := make([]Edge, 0, n-1)
	for i := 0; i < n-1; i++ {
		out = append(out, Edge{
			From:  At(apexID(i)),
			To:    At(apexID(i + 1)),
			Kind:  EdgeDelegates,
			Label: "delegates to",
			Color: ColorDelegation,
			Style: Dashed,
		})
	}
	return out
}
