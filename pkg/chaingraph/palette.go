package chaingraph

import "github.com/matzehuels/trustchain/pkg/chain"

// Palette is the color scheme of one zone cluster.
type Palette struct {
	Border   string
	Apex     string
	ApexFill string
}

// Zone palettes.
var (
	PaletteRoot     = Palette{Border: "#2563eb", Apex: "#1d4ed8", ApexFill: "#dbeafe"}
	PaletteTLD      = Palette{Border: "#0d9488", Apex: "#0f766e", ApexFill: "#ccfbf1"}
	PaletteTarget   = Palette{Border: "#16a34a", Apex: "#15803d", ApexFill: "#dcfce7"}
	PaletteUnsigned = Palette{Border: "#9ca3af", Apex: "#6b7280", ApexFill: "#f3f4f6"}
	PaletteBreak    = Palette{Border: "#dc2626", Apex: "#b91c1c", ApexFill: "#fee2e2"}
)

// Fixed colors shared by every cluster.
const (
	ColorError      = "#dc2626"
	ColorTrust      = "#16a34a"
	ColorDelegation = "#f97316"
	ColorNeutral    = "#6b7280"
	ColorDSFill     = "#ede9fe"
	ColorDSBorder   = "#7c3aed"
	ColorNodeFill   = "#ffffff"
)

// ResolvePalette picks the palette for a zone. A break overrides an
// unsigned zone, which overrides the zone-type palette.
func ResolvePalette(zoneType string, signed, broken bool) Palette {
	switch {
	case broken:
		return PaletteBreak
	case !signed:
		return PaletteUnsigned
	}
	switch zoneType {
	case chain.ZoneRoot:
		return PaletteRoot
	case chain.ZoneTLD:
		return PaletteTLD
	case chain.ZoneTarget, chain.ZoneSubdomain:
		return PaletteTarget
	default:
		return PaletteUnsigned
	}
}

func (l LevelInfo) palette() Palette {
	return ResolvePalette(l.ZoneType, l.Signed, l.Broken)
}
