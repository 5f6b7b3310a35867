// Package layout computes auto-layout positions for a workflow canvas.
//
// # Overview
//
// A layout run has three stages:
//
//  1. [Build] turns nodes and edges into an abstract [Graph] of boxes with
//     fixed ports: "in" on the side facing upstream and "out" on the side
//     facing downstream. Trigger nodes only get "out".
//  2. An engine assigns coordinates. [EngineLayered] is a pure-Go Sugiyama
//     pipeline built on [dag] and [ordering]; [EngineGraphviz] delegates to
//     the Graphviz dot engine.
//  3. [Tidy] straightens simple chains onto a single row (or column) and
//     snaps everything else to the grid.
//
// [Apply] runs all three and returns a fresh node slice with only positions
// replaced. It never fails hard: on any error, including a panic inside an
// engine, the caller gets the original nodes back.
//
// # Concurrency
//
// Layout runs may take a while on large graphs. A [Controller] guards a
// canvas against overlapping runs and discards results that were overtaken
// by a newer request, using a [Generation] token.
//
// [dag]: github.com/matzehuels/flowcanvas/pkg/dag
// [ordering]: github.com/matzehuels/flowcanvas/pkg/layout/ordering
package layout
