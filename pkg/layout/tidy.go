package layout

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// IsLinearChain reports whether g is a single simple path and returns its
// boxes in path order.
//
// Every box must have at most one incoming and one outgoing link, exactly
// one box must have no incoming link, and following links from that box
// must visit every box exactly once.
func IsLinearChain(g *Graph) ([]string, bool) {
	if len(g.Boxes) == 0 {
		return nil, false
	}
	next := make(map[string]string, len(g.Links))
	inDeg := make(map[string]int, len(g.Boxes))
	for _, l := range g.Links {
		if _, dup := next[l.Source]; dup {
			return nil, false
		}
		next[l.Source] = l.Target
		inDeg[l.Target]++
		if inDeg[l.Target] > 1 {
			return nil, false
		}
	}

	head := ""
	for _, b := range g.Boxes {
		if inDeg[b.ID] == 0 {
			if head != "" {
				return nil, false
			}
			head = b.ID
		}
	}
	if head == "" {
		return nil, false
	}

	chain := make([]string, 0, len(g.Boxes))
	seen := make(map[string]bool, len(g.Boxes))
	for id, ok := head, true; ok; id, ok = next[id] {
		if seen[id] {
			return nil, false
		}
		seen[id] = true
		chain = append(chain, id)
	}
	return chain, len(chain) == len(g.Boxes)
}

// Tidy post-processes engine coordinates and reports whether the graph was
// laid out as a linear chain.
//
// A linear chain is placed along the primary axis starting at the head's
// snapped position: each box advances by the previous box's extent plus
// LayerSpacing, and all boxes share the head's cross coordinate. Any other
// graph keeps the engine's coordinates snapped to GridSize.
func Tidy(g *Graph, pos map[string]workflow.Position, opts Options) (map[string]workflow.Position, bool) {
	opts = opts.WithDefaults()
	out := make(map[string]workflow.Position, len(pos))

	chain, linear := IsLinearChain(g)
	if !linear {
		for id, p := range pos {
			out[id] = snapPosition(p, opts.GridSize)
		}
		return out, false
	}

	dir := g.Direction
	cur := snapPosition(pos[chain[0]], opts.GridSize)
	out[chain[0]] = cur
	for i := 1; i < len(chain); i++ {
		prev, _ := g.Box(chain[i-1])
		box, _ := g.Box(chain[i])
		step := prev.primary(dir) + opts.LayerSpacing
		if dir.Reversed() {
			step = -(box.primary(dir) + opts.LayerSpacing)
		}
		if dir.Horizontal() {
			cur.X += step
		} else {
			cur.Y += step
		}
		out[chain[i]] = cur
	}
	return out, true
}

func snapPosition(p workflow.Position, grid float64) workflow.Position {
	return workflow.Position{X: snap(p.X, grid), Y: snap(p.Y, grid)}
}

// snap rounds v to the nearest multiple of grid. A non-positive grid
// leaves v unchanged.
func snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	s := math.Round(v/grid) * grid
	if s == 0 {
		return 0 // no negative zero
	}
	return s
}
