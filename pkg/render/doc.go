// Package render turns workflow graphs into images.
//
// The [nodelink] subpackage draws a graph as boxes and arrows with
// Graphviz, either laid out by Graphviz itself or pinned to the canvas
// positions computed by the layout package.
//
//	dot := nodelink.ToDOT(nodes, edges, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot, false)
//
// [nodelink]: github.com/matzehuels/flowcanvas/pkg/render/nodelink
package render
