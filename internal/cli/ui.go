package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/trustchain/pkg/chain"
	"github.com/matzehuels/trustchain/pkg/chaingraph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures and chain breaks.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(nodeCount, edgeCount int, cached bool) {
	fmt.Println(statsLine(nodeCount, edgeCount, cached))
}

func statsLine(nodeCount, edgeCount int, cached bool) string {
	var parts []string
	if nodeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d nodes", nodeCount))
	}
	if edgeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d edges", edgeCount))
	}

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}

	line := "  "
	for _, part := range parts {
		line += StyleDim.Render(part) + StyleDim.Render(" · ")
	}
	return line + status
}

// =============================================================================
// Chain Summary
// =============================================================================

// statusStyle picks the style for an upstream status type
// (success, warning, danger).
func statusStyle(kind string) lipgloss.Style {
	switch kind {
	case "success":
		return StyleSuccess
	case "warning":
		return StyleWarning
	case "danger", "error":
		return StyleError
	default:
		return StyleValue
	}
}

// summaryLines formats the upstream verdict and any chain breaks.
func summaryLines(s *chain.Summary) []string {
	if s == nil {
		return nil
	}
	st := s.SecurityStatus
	verdict := st.Message
	if verdict == "" {
		verdict = st.OverallStatus
	}
	lines := []string{
		statusStyle(st.Type).Render(verdict),
		StyleDim.Render(fmt.Sprintf("%d levels · %d signed · %d unsigned",
			s.TotalLevels, s.SignedLevels, s.UnsignedLevels)),
	}
	for _, b := range s.ChainBreaks {
		lines = append(lines, StyleError.Render(fmt.Sprintf("break at %s: %s", b.Domain, b.Reason)))
	}
	return lines
}

// printChainSummary prints the verdict under a render result.
func printChainSummary(s *chain.Summary) {
	for _, l := range summaryLines(s) {
		fmt.Println("  " + l)
	}
}

// levelTable renders one row per zone cluster of g.
func levelTable(g *chaingraph.Graph) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	clusters := g.Clusters()

	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		keys, ds := 0, 0
		for _, n := range c.Nodes {
			switch n.Kind {
			case chaingraph.KindDNSKEY:
				keys++
			case chaingraph.KindDSChild:
				ds++
			}
		}
		rows = append(rows, []string{
			fmt.Sprint(c.Index),
			c.Label,
			c.ZoneType,
			clusterStatus(c),
			fmt.Sprint(keys),
			fmt.Sprint(ds),
			strings.Join(c.NameServers, " "),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Zone", "Type", "Status", "Keys", "DS", "Name servers").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col != 3 || row >= len(clusters) {
				return lipgloss.NewStyle()
			}
			c := clusters[row]
			switch {
			case c.Broken:
				return StyleError
			case c.Signed:
				return StyleSuccess
			default:
				return StyleWarning
			}
		}).
		Render()
}

func clusterStatus(c chaingraph.Cluster) string {
	switch {
	case c.Broken:
		return "broken"
	case c.Signed:
		return "signed"
	default:
		return "unsigned"
	}
}
