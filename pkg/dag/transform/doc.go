// Package transform prepares a graph for layered drawing.
//
// [Prepare] runs the full pipeline in order:
//
//  1. [BreakCycles] reverses back edges so the graph becomes acyclic
//  2. [AssignLayers] puts every node one row below its deepest parent
//  3. [Subdivide] splits edges spanning several rows with dummy nodes
//
// After Prepare every edge joins two consecutive rows, which is what the
// crossing-minimization and coordinate passes of the layout engine assume.
// All steps visit nodes in insertion order, so the result depends only on
// the input, never on map iteration.
package transform
