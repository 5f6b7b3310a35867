package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/render/nodelink"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// RenderFromLayout draws nodes at their layout placements in every format
// of opts.Formats. Nodes are drawn with their placement sizes.
func RenderFromLayout(ctx context.Context, l graph.Layout, nodes []workflow.Node, edges []workflow.Edge, opts Options) (map[string][]byte, error) {
	dot := LayoutDOT(l, nodes, edges, opts.Detailed)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		format, err := nodelink.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		data, err := nodelink.Render(ctx, dot, format, true)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[name] = data
	}
	return artifacts, nil
}

// LayoutDOT returns the pinned DOT source for nodes placed by l.
func LayoutDOT(l graph.Layout, nodes []workflow.Node, edges []workflow.Edge, detailed bool) string {
	moved := layout.ApplyLayout(nodes, l)
	placed := make(map[string]graph.Placement, len(l.Placements))
	for _, p := range l.Placements {
		placed[p.ID] = p
	}
	for i := range moved {
		if p, ok := placed[moved[i].ID]; ok && p.Width > 0 && p.Height > 0 {
			moved[i].Size = &workflow.Size{Width: p.Width, Height: p.Height}
		}
	}
	return nodelink.ToDOT(moved, edges, nodelink.Options{
		Detailed:  detailed,
		Pinned:    true,
		Direction: l.Direction,
	})
}
