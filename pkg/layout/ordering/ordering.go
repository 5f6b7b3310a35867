// Package ordering decides the left-to-right order of nodes within each row
// of a layered graph.
//
// Orderers start from declaration order (each node's [dag.Node.Index]) and
// only move a node when that strictly reduces edge crossings, so re-running
// a layout after a small edit leaves unrelated branches where they were.
package ordering

import (
	"context"
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/dag"
)

// Orderer computes row orders for a prepared graph (every edge joins
// consecutive rows).
type Orderer interface {
	OrderRows(g *dag.DAG) map[int][]string
}

// ContextOrderer is an Orderer that stops early when ctx is done, returning
// the best order found so far.
type ContextOrderer interface {
	Orderer
	OrderRowsContext(ctx context.Context, g *dag.DAG) map[int][]string
}

// Declaration orders every row by declaration index and performs no
// crossing reduction.
type Declaration struct{}

// OrderRows implements Orderer.
func (Declaration) OrderRows(g *dag.DAG) map[int][]string { return DeclarationOrder(g) }

// DeclarationOrder returns each row sorted by declaration index. Ties keep
// insertion order.
func DeclarationOrder(g *dag.DAG) map[int][]string {
	orders := make(map[int][]string, g.RowCount())
	for _, r := range g.RowIDs() {
		nodes := slices.Clone(g.NodesInRow(r))
		slices.SortStableFunc(nodes, func(a, b *dag.Node) int { return a.Index - b.Index })
		orders[r] = dag.NodeIDs(nodes)
	}
	return orders
}

// Apply writes orders back into g's row index.
func Apply(g *dag.DAG, orders map[int][]string) {
	for r, ids := range orders {
		g.SetRowOrder(r, ids)
	}
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
