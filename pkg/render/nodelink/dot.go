package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the type id and version to node labels.
	Detailed bool
	// Pinned places nodes at their canvas positions.
	Pinned bool
	// Direction is RIGHT, LEFT, DOWN or UP. Empty means RIGHT.
	Direction string
}

// Format is an output format of [Render].
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatDOT Format = "dot"
)

// ParseFormat parses a format name. The empty string selects SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatPNG, FormatDOT:
		return f, nil
	}
	return "", fmt.Errorf("unknown render format %q (want svg, png or dot)", s)
}

var statusFill = map[workflow.Status]string{
	workflow.StatusRunning: "lightblue",
	workflow.StatusSuccess: "palegreen",
	workflow.StatusError:   "salmon",
	workflow.StatusSkipped: "lightgrey",
}

// ToDOT converts a workflow to Graphviz DOT.
//
// Pinned diagrams carry each node's centre as pos="x,y!" in canvas pixels
// with the y axis flipped, and must be rendered with pinned=true.
func ToDOT(nodes []workflow.Node, edges []workflow.Edge, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Pinned {
		buf.WriteString("  inputscale=72;\n")
		buf.WriteString("  splines=true;\n")
	} else {
		fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(opts.Direction))
		buf.WriteString("  ranksep=0.6;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("\n")

	var maxY float64
	for _, n := range nodes {
		maxY = max(maxY, n.Position.Y+nodeSize(n).Height)
	}

	for _, n := range nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		if opts.Pinned {
			// Graphviz positions are centres with y growing upwards.
			sz := nodeSize(n)
			cx, cy := n.Position.X+sz.Width/2, maxY-(n.Position.Y+sz.Height/2)
			attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(cx), num(cy)))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		if src, _ := e.Handles(); src != workflow.DefaultSourceHandle {
			attrs = append(attrs, fmt.Sprintf("taillabel=%q", src))
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeSize returns the measured size of n, or the default canvas box.
func nodeSize(n workflow.Node) workflow.Size {
	if n.Size != nil && n.Size.Width > 0 && n.Size.Height > 0 {
		return *n.Size
	}
	return workflow.Size{Width: 200, Height: 100}
}

func fmtLabel(n workflow.Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.TypeID
	}
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\n%s v%d\n%s", label, n.TypeID, n.Version, n.ID)
}

func fmtAttrs(n workflow.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if fill, ok := statusFill[n.Status]; ok {
		attrs = append(attrs, "fillcolor="+fill)
	}
	if graph.IsTriggerType(graph.CanonicalType(n.TypeID)) {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func rankdir(direction string) string {
	switch strings.ToUpper(direction) {
	case "LEFT":
		return "RL"
	case "DOWN":
		return "TB"
	case "UP":
		return "BT"
	default:
		return "LR"
	}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Render renders DOT to the given format. FormatDOT returns the input.
func Render(ctx context.Context, dot string, format Format, pinned bool) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatPNG:
		return render(ctx, dot, graphviz.PNG, pinned)
	case FormatSVG, "":
		return RenderSVG(ctx, dot, pinned)
	}
	return nil, fmt.Errorf("unknown render format %q", format)
}

// RenderSVG renders a DOT graph to SVG using Graphviz. Pinned graphs are
// laid out with neato so node positions are kept.
func RenderSVG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG, pinned)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

func render(ctx context.Context, dot string, format graphviz.Format, pinned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based svg header with a pixel
// viewBox so the diagram scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
