package transform

import (
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/dag"
)

// Subdivide replaces every edge spanning more than one row by a chain of
// single-row edges through [dag.NodeKindDummy] nodes and returns the number
// of dummies added:
//
//	Before: trigger (row 0) → end (row 3)
//	After:  trigger → trigger_sub_1 → trigger_sub_2 → end
//
// Dummies carry the source's id as MasterID and its declaration index, and
// are named "<source>_sub_<row>" with a numeric suffix on collision. The
// chain keeps the original edge's id and reversed flag on its last hop.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0

	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			prevID = addDummy(g, gen, prevID, src, row, e)
			added++
		}
		mustAddEdge(g, dag.Edge{ID: e.ID, From: prevID, To: dst.ID, Reversed: e.Reversed})
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
	return added
}

func addDummy(g *dag.DAG, gen *idGen, from string, master *dag.Node, row int, e dag.Edge) string {
	id := gen.next(master.ID, row)
	if err := g.AddNode(dag.Node{
		ID:       id,
		Row:      row,
		Index:    master.Index,
		Kind:     dag.NodeKindDummy,
		MasterID: master.ID,
	}); err != nil {
		panic(err)
	}
	mustAddEdge(g, dag.Edge{ID: e.ID, From: from, To: id, Reversed: e.Reversed})
	return id
}

func mustAddEdge(g *dag.DAG, e dag.Edge) {
	if err := g.AddEdge(e); err != nil {
		panic(err)
	}
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_sub_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
