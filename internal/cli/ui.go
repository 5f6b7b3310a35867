package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(14)
)

// categoryColors tints the category column of type listings.
var categoryColors = map[nodedef.Category]lipgloss.Color{
	nodedef.CategoryTrigger:  colorGreen,
	nodedef.CategoryAgent:    colorCyan,
	nodedef.CategoryLogic:    colorYellow,
	nodedef.CategoryResponse: colorBlue,
}

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

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints graph statistics on a single line.
func printStats(w io.Writer, nodeCount, edgeCount int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d nodes", nodeCount),
		fmt.Sprintf("%d edges", edgeCount),
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(w, line+StyleDim.Render(" · ")+statusStyle.Render(status))
}

func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		printWarning(w, "%s", msg)
	}
}

// printImportError lists every reason an import was rejected. Errors that
// are not import rejections are printed as a single line.
func printImportError(w io.Writer, err error) {
	var ie *graph.ImportError
	if !errors.As(err, &ie) {
		printError(w, "%v", err)
		return
	}
	printError(w, "Graph rejected")
	for _, id := range ie.DanglingEdges {
		printDetail(w, "edge %s references a missing node", id)
	}
	for _, is := range ie.Issues {
		printDetail(w, "%s", is.String())
	}
}

// =============================================================================
// Tables
// =============================================================================

// typeTable renders node definitions as a table. selected highlights one
// row; pass -1 for none.
func typeTable(defs []*nodedef.Definition, selected int) string {
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, []string{
			d.TypeID,
			strconv.Itoa(d.Version),
			string(d.Category),
			d.DisplayName,
			portSummary(d),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Type", "Ver", "Category", "Name", "Ports").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == selected {
				base = base.Bold(true).Foreground(colorCyan)
			}
			if col == 2 && row != selected {
				if c, ok := categoryColors[defs[row].Category]; ok {
					return base.Foreground(c)
				}
			}
			if col == 4 {
				return base.Foreground(colorGray)
			}
			return base
		}).
		Render()
}

// portSummary renders a definition's ports as "in → out, error".
func portSummary(d *nodedef.Definition) string {
	ids := func(ports []nodedef.PortDef) string {
		names := make([]string, len(ports))
		for i, p := range ports {
			names[i] = p.ID
			if p.Type != nodedef.PortMain {
				names[i] += "(" + string(p.Type) + ")"
			}
		}
		if len(names) == 0 {
			return "-"
		}
		return strings.Join(names, ", ")
	}
	return ids(d.Inputs) + " " + iconArrow + " " + ids(d.Outputs)
}

// printDefinition prints the full detail of one node type.
func printDefinition(w io.Writer, d *nodedef.Definition) {
	fmt.Fprintln(w, StyleTitle.Render(d.DisplayName)+" "+StyleDim.Render(d.TypeID+" v"+strconv.Itoa(d.Version)))
	if d.Description != "" {
		fmt.Fprintln(w, d.Description)
	}
	fmt.Fprintln(w)
	printKeyValue(w, "Category", string(d.Category))
	if len(d.Tags) > 0 {
		printKeyValue(w, "Tags", strings.Join(d.Tags, ", "))
	}
	printKeyValue(w, "Ports", portSummary(d))
	if d.Runtime.Timeout > 0 {
		printKeyValue(w, "Timeout", d.Runtime.Timeout.String())
	}
	if d.Runtime.Retries > 0 {
		printKeyValue(w, "Retries", strconv.Itoa(d.Runtime.Retries))
	}
	for _, c := range d.Credentials {
		printKeyValue(w, "Credential", c.Type)
	}
	if d.HelpURL != "" {
		printKeyValue(w, "Help", d.HelpURL)
	}
	if len(d.Properties) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleHighlight.Render("Properties"))
	for _, p := range d.Properties {
		line := p.Name + " " + StyleDim.Render(string(p.Type))
		if p.Required {
			line += " " + StyleWarning.Render("required")
		}
		if def := d.DefaultValue(p.Name); def != nil {
			line += " " + StyleDim.Render(fmt.Sprintf("= %v", def))
		}
		fmt.Fprintln(w, "  "+line)
	}
}
