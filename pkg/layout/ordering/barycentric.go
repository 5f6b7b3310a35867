package ordering

import (
	"context"
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/dag"
)

// DefaultPasses is the number of down/up sweep pairs Barycentric runs
// when Passes is zero.
const DefaultPasses = 24

// Barycentric reduces crossings with alternating barycenter sweeps followed
// by adjacent-swap refinement.
//
// Each pass sorts every row by the mean position of its neighbours in the
// previous row (top-down, then bottom-up). Ties and nodes without neighbours
// fall back to declaration index. A pass is kept only if it strictly lowers
// the total crossing count; the first pass that does not ends the search.
type Barycentric struct {
	Passes int
}

// OrderRows implements Orderer.
func (b Barycentric) OrderRows(g *dag.DAG) map[int][]string {
	return b.OrderRowsContext(context.Background(), g)
}

// OrderRowsContext implements ContextOrderer.
func (b Barycentric) OrderRowsContext(ctx context.Context, g *dag.DAG) map[int][]string {
	passes := b.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}

	best := DeclarationOrder(g)
	bestCrossings := dag.CountCrossings(g, best)
	rows := g.RowIDs()

	for range passes {
		if bestCrossings == 0 || ctx.Err() != nil {
			break
		}
		cand := cloneOrders(best)
		for i := 1; i < len(rows); i++ {
			sortByBarycenter(g, cand[rows[i]], dag.PosMap(cand[rows[i-1]]), true)
		}
		for i := len(rows) - 2; i >= 0; i-- {
			sortByBarycenter(g, cand[rows[i]], dag.PosMap(cand[rows[i+1]]), false)
		}
		transpose(g, cand, rows)

		c := dag.CountCrossings(g, cand)
		if c >= bestCrossings {
			break
		}
		best, bestCrossings = cand, c
	}
	return best
}

// sortByBarycenter reorders ids in place by the mean position of each
// node's neighbours in the adjacent row.
func sortByBarycenter(g *dag.DAG, ids []string, adjPos map[string]int, useParents bool) {
	type keyed struct {
		id    string
		bary  float64
		has   bool
		index int
		pos   int
	}
	items := make([]keyed, len(ids))
	for i, id := range ids {
		k := keyed{id: id, pos: i}
		if n, ok := g.Node(id); ok {
			k.index = n.Index
		}
		var nbrs []string
		if useParents {
			nbrs = g.Parents(id)
		} else {
			nbrs = g.Children(id)
		}
		sum, count := 0, 0
		for _, nb := range nbrs {
			if p, ok := adjPos[nb]; ok {
				sum += p
				count++
			}
		}
		if count > 0 {
			k.bary, k.has = float64(sum)/float64(count), true
		} else {
			k.bary = float64(i)
		}
		items[i] = k
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.bary < b.bary:
			return -1
		case a.bary > b.bary:
			return 1
		case a.index != b.index:
			return a.index - b.index
		default:
			return a.pos - b.pos
		}
	})
	for i, it := range items {
		ids[i] = it.id
	}
}

// transpose swaps adjacent nodes while a swap strictly lowers the
// crossings with both neighbouring rows.
func transpose(g *dag.DAG, orders map[int][]string, rows []int) {
	for improved, guard := true, 0; improved && guard < 4*len(rows)+4; guard++ {
		improved = false
		for i, r := range rows {
			ids := orders[r]
			var above, below map[string]int
			if i > 0 {
				above = dag.PosMap(orders[rows[i-1]])
			}
			if i < len(rows)-1 {
				below = dag.PosMap(orders[rows[i+1]])
			}
			for j := 0; j+1 < len(ids); j++ {
				l, rr := ids[j], ids[j+1]
				keep := dag.CountPairCrossings(g, l, rr, above, true) + dag.CountPairCrossings(g, l, rr, below, false)
				swap := dag.CountPairCrossings(g, rr, l, above, true) + dag.CountPairCrossings(g, rr, l, below, false)
				if swap < keep {
					ids[j], ids[j+1] = rr, l
					improved = true
				}
			}
		}
	}
}
