package transform

import "github.com/matzehuels/flowcanvas/pkg/dag"

// BreakCycles makes g acyclic and returns the number of edges changed.
//
// A depth-first search from the sources, then from any node not yet
// visited, finds back edges. Self-loops are removed; every other back edge
// is reversed so the connection still influences layering and ordering.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		if e[0] == e[1] {
			g.RemoveEdge(e[0], e[1])
			continue
		}
		g.ReverseEdge(e[0], e[1])
	}
	return len(backEdges)
}
