// Package dag provides the directed graph used by the layered layout engine.
//
// # Overview
//
// Workflow graphs are laid out in layers (rows): every node is assigned a
// row, and after normalization every edge joins two consecutive rows. This
// package holds that structure together with the adjacency queries and
// crossing counts the layout needs.
//
// Nodes remember the order in which they were added. [DAG.Nodes],
// [DAG.Sources] and [DAG.NodesInRow] all return nodes in that order, which
// keeps every algorithm built on top of the graph deterministic.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "trigger"})
//	g.AddNode(dag.Node{ID: "agent"})
//	g.AddEdge(dag.Edge{From: "trigger", To: "agent"})
//
// # Node Kinds
//
//   - [NodeKindRegular]: a workflow node
//   - [NodeKindDummy]: a synthetic waypoint inserted to split an edge that
//     spans several rows; [Node.MasterID] names the edge's source node
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count crossings between
// adjacent rows with a Fenwick tree in O(E log V).
//
// # Concurrency
//
// A DAG is not safe for concurrent use. The layout engine builds a fresh
// graph for every run.
//
// The [transform] subpackage breaks cycles, assigns layers and splits long
// edges.
//
// [transform]: github.com/matzehuels/flowcanvas/pkg/dag/transform
package dag
