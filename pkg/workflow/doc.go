// Package workflow holds the editor-side representation of a workflow:
// node instances placed on a canvas and the edges between their ports.
//
// Node and edge identifiers are ULIDs with a short prefix ("n_" for nodes,
// "e_" for edges). They are assigned once at creation, never reused, and
// sort lexicographically by creation time.
//
// Collections are plain slices owned by whoever holds them. Functions in
// this module and in the converter and layout packages never modify a
// collection in place; use [CloneNodes] and [CloneEdges] before handing
// values to code that may.
package workflow
