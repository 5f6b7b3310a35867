package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/dag"
	"github.com/matzehuels/flowcanvas/pkg/dag/transform"
	"github.com/matzehuels/flowcanvas/pkg/layout/ordering"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// Layered assigns top-left coordinates with the layered pipeline:
//
//  1. Back edges are reversed and nodes are layered by longest path.
//  2. Edges spanning several layers are split by zero-size dummies.
//  3. Barycentric sweeps reorder each layer, seeded and tie-broken by
//     declaration order.
//  4. Each layer is as deep as its deepest box; boxes are centred in it.
//     Within a layer, boxes are stacked NodeSpacing apart and the stack is
//     centred on the widest layer.
//
// LEFT and UP mirror the primary axis. Only the real boxes are returned.
func Layered(ctx context.Context, g *Graph, opts Options) (map[string]workflow.Position, error) {
	opts = opts.WithDefaults()
	d, err := toDAG(g)
	if err != nil {
		return nil, err
	}

	res := transform.Prepare(d)
	opts.Logger.Debug("layered graph prepared",
		"layers", res.Layers, "dummies", res.DummiesAdded, "cycles_broken", res.CyclesBroken)

	orders := ordering.Barycentric{}.OrderRowsContext(ctx, d)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ordering.Apply(d, orders)

	return assignCoordinates(d, orders, opts), nil
}

func toDAG(g *Graph) (*dag.DAG, error) {
	d := dag.New()
	for _, b := range g.Boxes {
		if err := d.AddNode(dag.Node{ID: b.ID, Index: b.Index, Width: b.Width, Height: b.Height}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", b.ID, err)
		}
	}
	for _, l := range g.Links {
		if err := d.AddEdge(dag.Edge{ID: l.ID, From: l.Source, To: l.Target}); err != nil {
			return nil, fmt.Errorf("add edge %s: %w", l.ID, err)
		}
	}
	return d, nil
}

func assignCoordinates(d *dag.DAG, orders map[int][]string, opts Options) map[string]workflow.Position {
	dir := opts.Direction
	rows := d.RowIDs()

	primaryOf := func(n *dag.Node) float64 {
		if dir.Horizontal() {
			return n.Width
		}
		return n.Height
	}
	crossOf := func(n *dag.Node) float64 {
		if dir.Horizontal() {
			return n.Height
		}
		return n.Width
	}

	// Layer depth and offset along the primary axis.
	depth := make(map[int]float64, len(rows))
	offset := make(map[int]float64, len(rows))
	var total float64
	for i, r := range rows {
		for _, id := range orders[r] {
			n, _ := d.Node(id)
			depth[r] = max(depth[r], primaryOf(n))
		}
		if i > 0 {
			total += opts.LayerSpacing
		}
		offset[r] = total
		total += depth[r]
	}

	// Stack length of every layer along the cross axis.
	span := make(map[int]float64, len(rows))
	var widest float64
	for _, r := range rows {
		for i, id := range orders[r] {
			n, _ := d.Node(id)
			if i > 0 {
				span[r] += opts.NodeSpacing
			}
			span[r] += crossOf(n)
		}
		widest = max(widest, span[r])
	}

	pos := make(map[string]workflow.Position, d.NodeCount())
	for _, r := range rows {
		c := (widest - span[r]) / 2
		for _, id := range orders[r] {
			n, _ := d.Node(id)
			p := offset[r] + (depth[r]-primaryOf(n))/2
			if dir.Reversed() {
				p = total - p - primaryOf(n)
			}
			if !n.IsDummy() {
				if dir.Horizontal() {
					pos[id] = workflow.Position{X: p, Y: c}
				} else {
					pos[id] = workflow.Position{X: c, Y: p}
				}
			}
			c += crossOf(n) + opts.NodeSpacing
		}
	}
	return pos
}
