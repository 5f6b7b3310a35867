// Package nodelink renders workflow graphs as node-link diagrams.
//
// # Usage
//
// Convert nodes and edges to DOT, then render:
//
//	dot := nodelink.ToDOT(nodes, edges, nodelink.Options{Pinned: true})
//	svg, err := nodelink.RenderSVG(ctx, dot, true)
//
// # Options
//
//   - Detailed: node labels include the type id and schema version
//   - Pinned: nodes are fixed at their canvas positions and laid out with
//     neato instead of dot
//   - Direction: rank direction for unpinned diagrams
//
// Nodes are filled by execution status (running, success, error, skipped)
// and triggers get a double border.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering to SVG and PNG.
package nodelink
