package chaingraph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/trustchain/pkg/chain"
)

const digestPrefixLen = 8

func clusterID(i int) string { return fmt.Sprintf("cluster_%d", i) }
func apexID(i int) string    { return fmt.Sprintf("apex_%d", i) }
func keySetID(i int) string  { return fmt.Sprintf("keys_%d", i) }
func dnskeyID(i int) string  { return fmt.Sprintf("dnskey_%d", i) }
func dsSetID(i int) string   { return fmt.Sprintf("dsset_%d", i) }
func dsChildID(i int) string { return fmt.Sprintf("ds_%d_%d", i, i+1) }

// levelName is the label used for a level: its display name, or its domain
// when the display name is missing.
func levelName(l chain.Level) string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	return l.Domain
}

// buildCluster emits the nodes for levels[idx] and attaches its edges.
func buildCluster(levels []chain.Level, info LevelInfo) Cluster {
	idx := info.Index
	lvl := levels[idx]
	pal := info.palette()

	c := Cluster{
		ID:          clusterID(idx),
		Index:       idx,
		Label:       clusterLabel(lvl, info),
		ZoneType:    info.ZoneType,
		Signed:      info.Signed,
		Broken:      info.Broken,
		Palette:     pal,
		Tooltip:     securityTooltip(info),
		NameServers: slices.Clone(lvl.Records.NSRecords),
	}

	c.Nodes = append(c.Nodes, apexNode(lvl, info, pal), keySetNode(idx, info, pal))
	if idx > 0 {
		if info.HasDNSKEY {
			c.Nodes = append(c.Nodes, Node{
				ID:     dnskeyID(idx),
				Kind:   KindDNSKEY,
				Label:  "DNSKEY",
				Shape:  ShapeBox,
				Fill:   ColorNodeFill,
				Border: pal.Border,
				Style:  Solid,
			})
			c.SameRank = append(c.SameRank, []string{dnskeyID(idx), keySetID(idx)})
		} else {
			c.Nodes = append(c.Nodes, Node{
				ID:      dnskeyID(idx),
				Kind:    KindDNSKEYMissing,
				Label:   "No DNSKEY",
				Shape:   ShapeBox,
				Fill:    PaletteBreak.ApexFill,
				Border:  ColorError,
				Style:   Dashed,
				Tooltip: "DNSKEY records not found",
			})
		}
	}
	c.Nodes = append(c.Nodes, Node{
		ID:     dsSetID(idx),
		Kind:   KindDSSet,
		Label:  "DS",
		Shape:  ShapeBox,
		Fill:   ColorNodeFill,
		Border: pal.Border,
		Style:  Solid,
	})
	if !info.Last {
		c.Nodes = append(c.Nodes, dsChildNode(idx, levels[idx+1]))
	}

	c.Edges, c.Bridges = composeEdges(levels, info)
	return c
}

func clusterLabel(l chain.Level, info LevelInfo) string {
	return fmt.Sprintf("%s (%s)", levelName(l), info.ZoneType)
}

func securityTooltip(info LevelInfo) string {
	switch {
	case info.Broken:
		return "BROKEN"
	case info.Signed:
		return "SECURE"
	default:
		return "INSECURE"
	}
}

func apexNode(l chain.Level, info LevelInfo, pal Palette) Node {
	label := levelName(l)
	if info.Index == 0 {
		label += "\n(Root Zone)"
	}
	return Node{
		ID:      apexID(info.Index),
		Kind:    KindApex,
		Label:   label,
		Shape:   ShapeEllipse,
		Fill:    pal.ApexFill,
		Border:  pal.Apex,
		Style:   Solid,
		Tooltip: l.DNSSECStatus.Message,
	}
}

func keySetNode(idx int, info LevelInfo, pal Palette) Node {
	return Node{
		ID:    keySetID(idx),
		Kind:  KindKeySet,
		Shape: ShapeRecord,
		Fields: []Field{
			keyField(PortKSK, chain.RoleKSK, info.KSK),
			keyField(PortZSK, chain.RoleZSK, info.ZSK),
		},
		Fill:   ColorNodeFill,
		Border: pal.Border,
		Style:  Solid,
	}
}

// keyField formats a key as "<role> <tag> <algorithm>". An absent key keeps
// its port with empty text.
func keyField(port, role string, k *chain.DNSKeyRecord) Field {
	if k == nil {
		return Field{Port: port, Tooltip: "No " + role}
	}
	tip := fmt.Sprintf("Key ID: %d\nAlg: %s\nSize: %d", k.KeyTag, algorithmName(k), k.KeySize)
	return Field{
		Port:    port,
		Text:    fmt.Sprintf("%s %d %s", role, k.KeyTag, k.AlgorithmLabel()),
		Tooltip: tip,
	}
}

func algorithmName(k *chain.DNSKeyRecord) string {
	if k.AlgorithmName != "" {
		return k.AlgorithmName
	}
	return chain.AlgorithmName(k.Algorithm)
}

// dsChildNode is the DS record a zone publishes for child, or a placeholder
// when the child reports none.
func dsChildNode(idx int, child chain.Level) Node {
	name := levelName(child)
	ds, ok := child.FirstDS()
	if !ok {
		return Node{
			ID:      dsChildID(idx),
			Kind:    KindDSMissing,
			Label:   "No DS for " + name,
			Shape:   ShapeBox,
			Fill:    PaletteBreak.ApexFill,
			Border:  ColorError,
			Style:   Dashed,
			Tooltip: "Missing DS record in parent zone",
		}
	}
	fill, border := ColorDSFill, ColorDSBorder
	if child.DNSKEYBreak() {
		fill, border = PaletteBreak.ApexFill, PaletteBreak.Border
	}
	digestName := ds.DigestTypeName
	if digestName == "" {
		digestName = chain.DigestTypeName(ds.DigestType)
	}
	label := fmt.Sprintf("DS for %s\nKey tag %d, digest type %d\n%s", name, ds.KeyTag, ds.DigestType, TruncateDigest(ds.Digest))
	tip := fmt.Sprintf("Key ID: %d\nDigest type: %s\nDigest: %s", ds.KeyTag, digestName, ds.Digest)
	return Node{
		ID:      dsChildID(idx),
		Kind:    KindDSChild,
		Label:   label,
		Shape:   ShapeBox,
		Fill:    fill,
		Border:  border,
		Style:   Solid,
		Tooltip: tip,
	}
}

// TruncateDigest shortens a digest to its first eight characters followed by
// an ellipsis. Digests of eight characters or fewer are returned unchanged.
func TruncateDigest(d string) string {
	r := []rune(d)
	if len(r) <= digestPrefixLen {
		return d
	}
	return string(r[:digestPrefixLen]) + "…"
}
