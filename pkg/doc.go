// Package pkg provides the core libraries for flowcanvas, a backend for
// visual workflow editors.
//
// # Overview
//
// A workflow is a directed graph of typed nodes. Each node type is a
// versioned schema (its ports, properties, defaults and config migrations)
// held in a registry. Editors work on a canvas of positioned nodes and
// edges; storage and the API exchange a canonical graph document. The pkg
// directory is organized into four areas:
//
//  1. Schema: [nodedef], [registry]
//  2. Graph model: [workflow], [graph], [editor]
//  3. Layout and rendering: [dag], [layout], [render/nodelink]
//  4. Plumbing: [pipeline], [cache], [store], [config], [server]
//
// # Architecture
//
// The typical data flow:
//
//	JSON/YAML graph document
//	         ↓
//	    [graph] import checks (dangling edges, ports, config migration)
//	         ↓
//	    [layout] auto-layout (layered or Graphviz)
//	         ↓
//	    [render/nodelink] SVG/PNG/DOT, or [store] persistence
//
// # Quick Start
//
//	reg := registry.Builtin()
//	res, err := graph.Import(data, graph.ImportOptions{Catalog: reg})
//	if err != nil {
//	    return err // *graph.ImportError lists every problem
//	}
//
//	l, err := layout.Compute(ctx, res.Nodes, res.Edges, nil, layout.DefaultOptions())
//	def := l.ApplyTo(res.Definition)
//
// # Main Packages
//
// [nodedef] - Node type definitions: ports and their compatibility rules,
// typed properties with validation rules, and per-version config migrations.
//
// [registry] - The set of registered node types, with the built-in catalog,
// TOML/JSON catalog files, search, and config upgrades.
//
// [workflow] - Editor-side nodes and edges with positions, sizes and
// run status.
//
// [graph] - The canonical graph document, conversion to and from editor
// collections, import checks, and layout results.
//
// [editor] - A canvas session: node and edge edits, connection checks,
// asynchronous loads and auto-layout that never overwrites newer edits.
//
// [dag] and [dag/transform] - Layered graph structure, cycle breaking and
// edge subdivision used by the layered engine.
//
// [layout] - Auto-layout engines, grid snapping, and the generation
// controller that discards stale results.
//
// [pipeline] - Cached import → layout → render runs shared by the CLI and
// the API server.
//
// [cache] - File, Redis and no-op caches with content-hash keys.
//
// [store] - Graph persistence in memory, files, MongoDB or PostgreSQL.
//
// [server] - The HTTP API.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// Store and cache tests that need MongoDB, PostgreSQL or Redis read their
// address from the environment and skip when it is unset.
//
// [nodedef]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/nodedef
// [registry]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/registry
// [workflow]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/workflow
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/graph
// [editor]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/editor
// [dag]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/dag/transform
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/layout
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/config
// [server]: https://pkg.go.dev/github.com/matzehuels/flowcanvas/pkg/server
package pkg
