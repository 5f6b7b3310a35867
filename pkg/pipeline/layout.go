package pipeline

import (
	"context"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout computes placements for nodes and edges. Sizes from
// opts.Sizes take precedence over the nodes' measured sizes.
func GenerateLayout(ctx context.Context, nodes []workflow.Node, edges []workflow.Edge, opts Options) (graph.Layout, error) {
	lo, err := opts.LayoutOptions()
	if err != nil {
		return graph.Layout{}, err
	}
	var sizes layout.SizeFunc
	if len(opts.Sizes) > 0 {
		sizes = layout.FixedSizes(opts.Sizes)
	}
	return layout.Compute(ctx, nodes, edges, sizes, lo)
}

// =============================================================================
// Content Hashes
// =============================================================================

type structNode struct {
	ID     string `json:"id"`
	TypeID string `json:"type"`
}

type structEdge struct {
	Source       string `json:"s"`
	SourceHandle string `json:"sh"`
	Target       string `json:"t"`
	TargetHandle string `json:"th"`
}

// GraphHash hashes what a layout depends on: node ids and types in order
// and the edges' endpoints. Positions, configs and labels are ignored.
func GraphHash(nodes []workflow.Node, edges []workflow.Edge) string {
	ns := make([]structNode, len(nodes))
	for i, n := range nodes {
		ns[i] = structNode{ID: n.ID, TypeID: n.TypeID}
	}
	es := make([]structEdge, len(edges))
	for i, e := range edges {
		sh, th := e.Handles()
		es[i] = structEdge{Source: e.Source, SourceHandle: sh, Target: e.Target, TargetHandle: th}
	}
	// Only strings are encoded, which cannot fail.
	h, _ := cache.HashJSON([]any{ns, es})
	return h
}

// SizesHash hashes the effective size of every node: the override from
// sizes, else the node's measured size. It returns "" when no node has a
// size, so unsized graphs share a cache key.
func SizesHash(nodes []workflow.Node, sizes map[string]workflow.Size) (string, error) {
	effective := make(map[string]workflow.Size)
	for _, n := range nodes {
		if s, ok := sizes[n.ID]; ok && s.Width > 0 && s.Height > 0 {
			effective[n.ID] = s
		} else if n.Size != nil && n.Size.Width > 0 && n.Size.Height > 0 {
			effective[n.ID] = *n.Size
		}
	}
	if len(effective) == 0 {
		return "", nil
	}
	return cache.HashJSON(effective)
}

type contentNode struct {
	ID      string          `json:"id"`
	TypeID  string          `json:"type"`
	Version int             `json:"v"`
	Label   string          `json:"label"`
	Status  workflow.Status `json:"status"`
}

// ContentHash hashes what is drawn inside nodes and on edges.
func ContentHash(nodes []workflow.Node, edges []workflow.Edge) (string, error) {
	ns := make([]contentNode, len(nodes))
	for i, n := range nodes {
		ns[i] = contentNode{ID: n.ID, TypeID: n.TypeID, Version: n.Version, Label: n.Label, Status: n.Status}
	}
	return cache.HashJSON([]any{ns, edges})
}
