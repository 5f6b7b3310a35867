package layout

import (
	"errors"
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

var (
	// ErrEmptyNodeID is returned by [Build] for a node without id.
	ErrEmptyNodeID = errors.New("node without id")

	// ErrDuplicateNode is returned by [Build] when two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDanglingEdge is returned by [Build] for an edge whose source or
	// target is not a node of the graph.
	ErrDanglingEdge = errors.New("edge references missing node")
)

// Side is the side of a box a port sits on.
type Side string

const (
	SideWest  Side = "WEST"
	SideEast  Side = "EAST"
	SideNorth Side = "NORTH"
	SideSouth Side = "SOUTH"
)

// Port ids. They match the default edge handles.
const (
	PortIn  = workflow.DefaultTargetHandle
	PortOut = workflow.DefaultSourceHandle
)

// Port is a fixed connection point of a box.
type Port struct {
	ID   string
	Side Side
}

// Box is a node as the layout engines see it.
type Box struct {
	ID    string
	Index int

	Width, Height float64

	// Ports are ordered "in" then "out". Triggers only have "out".
	Ports   []Port
	Trigger bool
}

// Link is an edge between two boxes.
type Link struct {
	ID     string
	Source string
	Target string
}

// Graph is the abstract layout graph produced by [Build].
type Graph struct {
	Direction Direction
	Boxes     []Box
	Links     []Link

	index map[string]int
}

// Box returns the box with the given id.
func (g *Graph) Box(id string) (Box, bool) {
	i, ok := g.index[id]
	if !ok {
		return Box{}, false
	}
	return g.Boxes[i], true
}

// Port returns the box's port with the given id.
func (b Box) Port(id string) (Port, bool) {
	for _, p := range b.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Build creates the layout graph for nodes and edges. Box sizes come from
// sizes, then from each node's Size, then from the option defaults.
func Build(nodes []workflow.Node, edges []workflow.Edge, sizes SizeFunc, opts Options) (*Graph, error) {
	opts = opts.WithDefaults()
	in, out := portSides(opts.Direction)

	g := &Graph{
		Direction: opts.Direction,
		Boxes:     make([]Box, 0, len(nodes)),
		Links:     make([]Link, 0, len(edges)),
		index:     make(map[string]int, len(nodes)),
	}

	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("nodes[%d]: %w", i, ErrEmptyNodeID)
		}
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		w, h := boxSize(n, sizes, opts)
		trigger := graph.IsTriggerType(graph.CanonicalType(n.TypeID))

		ports := make([]Port, 0, 2)
		if !trigger {
			ports = append(ports, Port{ID: PortIn, Side: in})
		}
		ports = append(ports, Port{ID: PortOut, Side: out})

		g.index[n.ID] = len(g.Boxes)
		g.Boxes = append(g.Boxes, Box{
			ID:      n.ID,
			Index:   i,
			Width:   w,
			Height:  h,
			Ports:   ports,
			Trigger: trigger,
		})
	}

	var missing []string
	for _, e := range edges {
		_, okS := g.index[e.Source]
		_, okT := g.index[e.Target]
		if !okS || !okT {
			missing = append(missing, e.ID)
			continue
		}
		g.Links = append(g.Links, Link{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrDanglingEdge, missing)
	}
	return g, nil
}

func boxSize(n workflow.Node, sizes SizeFunc, opts Options) (w, h float64) {
	if sizes != nil {
		if s, ok := sizes(n.ID); ok && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height
		}
	}
	if n.Size != nil && n.Size.Width > 0 && n.Size.Height > 0 {
		return n.Size.Width, n.Size.Height
	}
	return opts.DefaultWidth, opts.DefaultHeight
}

// portSides returns the sides of the "in" and "out" ports for a direction.
func portSides(d Direction) (in, out Side) {
	switch d {
	case DirectionLeft:
		return SideEast, SideWest
	case DirectionDown:
		return SideNorth, SideSouth
	case DirectionUp:
		return SideSouth, SideNorth
	default:
		return SideWest, SideEast
	}
}

// primary returns the extent of a box along the layer axis.
func (b Box) primary(d Direction) float64 {
	if d.Horizontal() {
		return b.Width
	}
	return b.Height
}
