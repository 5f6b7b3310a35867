package layout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// ErrInternal wraps a panic recovered from a layout engine.
var ErrInternal = errors.New("layout engine failure")

// Compute lays out nodes and edges and returns the placements in node
// order. It never modifies its arguments.
//
// Compute runs under opts.Timeout and recovers engine panics as
// [ErrInternal]. Every run is reported to the layout hooks.
func Compute(ctx context.Context, nodes []workflow.Node, edges []workflow.Edge, sizes SizeFunc, opts Options) (l graph.Layout, err error) {
	opts = opts.WithDefaults()
	engine, err := ParseEngine(string(opts.Engine))
	if err != nil {
		return graph.Layout{}, err
	}
	opts.Engine = engine
	if opts.Direction, err = ParseDirection(string(opts.Direction)); err != nil {
		return graph.Layout{}, err
	}

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, string(engine), len(nodes))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			l = graph.Layout{}
		}
		hooks.OnLayoutComplete(ctx, string(engine), time.Since(start), err)
	}()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	g, err := Build(nodes, edges, sizes, opts)
	if err != nil {
		return graph.Layout{}, err
	}

	var raw map[string]workflow.Position
	switch engine {
	case EngineGraphviz:
		raw, err = Graphviz(ctx, g, opts)
	default:
		raw, err = Layered(ctx, g, opts)
	}
	if err != nil {
		return graph.Layout{}, fmt.Errorf("%s layout: %w", engine, err)
	}

	pos, linear := Tidy(g, raw, opts)
	return toLayout(g, pos, engine, linear), nil
}

func toLayout(g *Graph, pos map[string]workflow.Position, engine Engine, linear bool) graph.Layout {
	l := graph.Layout{
		Engine:     string(engine),
		Direction:  string(g.Direction),
		Linear:     linear,
		Placements: make([]graph.Placement, 0, len(g.Boxes)),
	}
	if len(g.Boxes) == 0 {
		return l
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range g.Boxes {
		p := pos[b.ID]
		l.Placements = append(l.Placements, graph.Placement{
			ID: b.ID, X: p.X, Y: p.Y, Width: b.Width, Height: b.Height,
		})
		minX, minY = min(minX, p.X), min(minY, p.Y)
		maxX, maxY = max(maxX, p.X+b.Width), max(maxY, p.Y+b.Height)
	}
	l.Width, l.Height = maxX-minX, maxY-minY
	return l
}

// Apply lays out nodes and returns a new slice in which only positions
// differ. On any failure the returned slice holds unmodified copies of
// nodes and the error is logged and returned for information; callers may
// always use the slice.
func Apply(ctx context.Context, nodes []workflow.Node, edges []workflow.Edge, sizes SizeFunc, opts Options) ([]workflow.Node, error) {
	opts = opts.WithDefaults()
	l, err := Compute(ctx, nodes, edges, sizes, opts)
	if err != nil {
		opts.Logger.Warn("auto-layout failed, keeping positions", "engine", opts.Engine, "err", err)
		return workflow.CloneNodes(nodes), err
	}
	return ApplyLayout(nodes, l), nil
}

// ApplyLayout returns copies of nodes moved to the layout's placements.
// Nodes missing from the layout keep their position.
func ApplyLayout(nodes []workflow.Node, l graph.Layout) []workflow.Node {
	pos := l.Positions()
	out := workflow.CloneNodes(nodes)
	for i := range out {
		if p, ok := pos[out[i].ID]; ok {
			out[i].Position = workflow.Position{X: p.X, Y: p.Y}
		}
	}
	return out
}
