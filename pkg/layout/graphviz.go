package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// pointsPerInch converts canvas pixels to the inches Graphviz sizes nodes
// in. One pixel is laid out as one point.
const pointsPerInch = 72.0

// ToDOT converts a layout graph to a DOT document for the dot engine.
//
// Boxes are fixed-size and unlabeled, edges are pinned to the compass
// point of their ports, and ordering=out keeps children in declaration
// order.
func ToDOT(g *Graph, opts Options) string {
	opts = opts.WithDefaults()
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(g.Direction))
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  splines=false;\n")
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.LayerSpacing))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.NodeSpacing))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for _, b := range g.Boxes {
		fmt.Fprintf(&buf, "  %q [width=%s, height=%s];\n", b.ID, inches(b.Width), inches(b.Height))
	}

	buf.WriteString("\n")
	in, out := portSides(g.Direction)
	for _, l := range g.Links {
		fmt.Fprintf(&buf, "  %q -> %q [tailport=%s, headport=%s];\n", l.Source, l.Target, compass(out), compass(in))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Graphviz assigns top-left coordinates with the Graphviz dot engine.
//
// Rendering cannot be interrupted; when ctx ends first, Graphviz returns
// ctx's error and the render finishes in the background.
func Graphviz(ctx context.Context, g *Graph, opts Options) (map[string]workflow.Position, error) {
	opts = opts.WithDefaults()
	if len(g.Boxes) == 0 {
		return map[string]workflow.Position{}, nil
	}
	dot := ToDOT(g, opts)

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := renderXDOT(ctx, dot)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return parsePositions(r.out, g)
	}
}

func renderXDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	stmtRe = regexp.MustCompile(`(?m)^\s*("(?:[^"\\]|\\.)*"|[A-Za-z0-9_.]+)\s*\[([^\]]*)\]`)
	posRe  = regexp.MustCompile(`\bpos="(-?[0-9.e+-]+),(-?[0-9.e+-]+)"`)
	bbRe   = regexp.MustCompile(`\bbb="(-?[0-9.e+-]+),(-?[0-9.e+-]+),(-?[0-9.e+-]+),(-?[0-9.e+-]+)"`)
)

// parsePositions reads node centres from laid-out DOT and converts them to
// top-left canvas coordinates with y growing downwards.
func parsePositions(out []byte, g *Graph) (map[string]workflow.Position, error) {
	text := strings.ReplaceAll(string(out), "\\\n", "")

	var top float64
	if m := bbRe.FindStringSubmatch(text); m != nil {
		top, _ = strconv.ParseFloat(m[4], 64)
	}

	centres := make(map[string][2]float64, len(g.Boxes))
	for _, m := range stmtRe.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if strings.HasPrefix(id, `"`) {
			unq, err := strconv.Unquote(id)
			if err != nil {
				continue
			}
			id = unq
		}
		if _, ok := g.index[id]; !ok {
			continue
		}
		p := posRe.FindStringSubmatch(m[2])
		if p == nil {
			continue
		}
		x, errX := strconv.ParseFloat(p[1], 64)
		y, errY := strconv.ParseFloat(p[2], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("node %s: bad pos %q", id, p[0])
		}
		centres[id] = [2]float64{x, y}
	}

	pos := make(map[string]workflow.Position, len(g.Boxes))
	for _, b := range g.Boxes {
		c, ok := centres[b.ID]
		if !ok {
			return nil, fmt.Errorf("graphviz returned no position for node %s", b.ID)
		}
		pos[b.ID] = workflow.Position{
			X: c[0] - b.Width/2,
			Y: (top - c[1]) - b.Height/2,
		}
	}
	return pos, nil
}

func rankdir(d Direction) string {
	switch d {
	case DirectionLeft:
		return "RL"
	case DirectionDown:
		return "TB"
	case DirectionUp:
		return "BT"
	default:
		return "LR"
	}
}

func compass(s Side) string {
	switch s {
	case SideWest:
		return "w"
	case SideEast:
		return "e"
	case SideNorth:
		return "n"
	default:
		return "s"
	}
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}
