package transform

import "github.com/matzehuels/flowcanvas/pkg/dag"

// Result reports what [Prepare] changed.
type Result struct {
	// CyclesBroken is the number of back edges reversed or removed.
	CyclesBroken int
	// DummiesAdded is the number of waypoint nodes inserted.
	DummiesAdded int
	// Layers is the number of rows after layering.
	Layers int
}

// Prepare breaks cycles, assigns layers and subdivides long edges, in that
// order. g is modified in place.
func Prepare(g *dag.DAG) Result {
	var r Result
	r.CyclesBroken = BreakCycles(g)
	AssignLayers(g)
	r.DummiesAdded = Subdivide(g)
	r.Layers = g.RowCount()
	return r
}
