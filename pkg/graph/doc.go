// Package graph defines the canonical, persisted form of a workflow and
// converts between it and the editor's node and edge collections.
//
// # Wire Format
//
// A [Definition] is the envelope stored and exchanged between tools:
//
//	{
//	  "id": "wf_1",
//	  "version": 1,
//	  "start": "n_01J...",
//	  "nodes": [{"id": "n_01J...", "type": "trigger.manual", "typeVersion": 1,
//	             "config": {}, "ui": {"x": 0, "y": 0}}],
//	  "edges": [{"id": "e_01J...", "source": "n_01J...", "target": "n_01K..."}]
//	}
//
// Node types on the wire are canonical, prefix-free names. [CanonicalType]
// and [InternalType] translate to and from the registry's type ids.
//
// # Conversion
//
// [ToCanonical] and [FromCanonical] are pure: they never modify their
// arguments and preserve node and edge ids exactly, so
//
//	ToCanonical(FromCanonical(def))
//
// reproduces every id, endpoint and config value of def.
//
// # Import
//
// [Import] decodes, validates and converts untrusted input in one step. It
// either returns a complete [ImportResult] or an [*ImportError] listing every
// problem found; it never returns a partial result.
//
// # Concurrency
//
// All functions are safe for concurrent use.
package graph
