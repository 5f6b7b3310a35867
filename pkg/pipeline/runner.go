package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// Catalog is the node-type catalog the parse stage checks against.
// *registry.Registry implements it.
type Catalog interface {
	graph.Catalog
	All() []*nodedef.Definition
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so that caching behaves the same everywhere.
//
// The Runner is stateless except for the catalog, cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Catalog Catalog
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(cat Catalog, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Catalog: cat,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	imported, parseHit, err := r.ParseWithCacheInfo(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Import = imported
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = len(imported.Nodes)
	result.Stats.EdgeCount = len(imported.Edges)
	result.CacheInfo.ParseHit = parseHit

	r.Logger.Info("imported graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"warnings", len(imported.Warnings),
		"duration", result.Stats.ParseTime)

	return r.run(ctx, imported.Definition.ID, imported.Nodes, imported.Edges, opts, result)
}

// ExecuteNodes runs the layout and render stages on editor collections
// that were already imported.
func (r *Runner) ExecuteNodes(ctx context.Context, graphID string, nodes []workflow.Node, edges []workflow.Edge, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	def := graph.ToCanonical(nodes, edges, graphID)
	result := &Result{
		Import: &graph.ImportResult{Definition: def, Nodes: nodes, Edges: edges, Warnings: []string{}},
	}
	result.Stats.NodeCount = len(nodes)
	result.Stats.EdgeCount = len(edges)
	return r.run(ctx, graphID, nodes, edges, opts, result)
}

func (r *Runner) run(ctx context.Context, graphID string, nodes []workflow.Node, edges []workflow.Edge, opts Options, result *Result) (*Result, error) {
	result.GraphHash = GraphHash(nodes, edges)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.GenerateLayoutWithCacheInfo(ctx, nodes, edges, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	l.GraphID = graphID
	result.Layout = l
	result.Nodes = layout.ApplyLayout(nodes, l)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"engine", l.Engine,
		"linear", l.Linear,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, nodes, edges, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo imports a graph with caching and returns cache hit info.
//
// The cache key combines the document hash with the catalog hash, so a
// changed catalog re-runs the checks. Rejected imports are never cached.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, data []byte, opts Options) (*graph.ImportResult, bool, error) {
	r.applyLogger(&opts)

	catalogHash := "none"
	if r.Catalog != nil {
		h, err := cache.HashJSON(r.Catalog.All())
		if err != nil {
			return nil, false, err
		}
		catalogHash = h
	}
	docHash := cache.Hash(data)
	if opts.YAML || opts.KeepVersions {
		docHash = cache.Hash(fmt.Appendf(nil, "%s:yaml=%t:keep=%t", docHash, opts.YAML, opts.KeepVersions))
	}
	cacheKey := r.Keyer.ValidationKey(docHash, catalogHash)

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var res graph.ImportResult
			if err := json.Unmarshal(cached, &res); err == nil {
				observability.Cache().OnCacheHit(ctx, "validation")
				return &res, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "validation")
	}

	res, err := Parse(ctx, r.Catalog, data, opts)
	if err != nil {
		return nil, false, err
	}

	if encoded, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, encoded, cache.LayoutTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "validation", len(encoded))
		}
	}
	return res, false, nil
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, data []byte, opts Options) (*graph.ImportResult, error) {
	res, _, err := r.ParseWithCacheInfo(ctx, data, opts)
	return res, err
}

// GenerateLayoutWithCacheInfo computes a layout with caching and returns cache hit info.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, nodes []workflow.Node, edges []workflow.Edge, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	sizesHash, err := SizesHash(nodes, opts.Sizes)
	if err != nil {
		return graph.Layout{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(GraphHash(nodes, edges), opts.LayoutKeyOpts(sizesHash))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l, err := GenerateLayout(ctx, nodes, edges, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, false, nil
}

// GenerateLayout is a convenience wrapper that calls GenerateLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) GenerateLayout(ctx context.Context, nodes []workflow.Node, edges []workflow.Edge, opts Options) (graph.Layout, error) {
	l, _, err := r.GenerateLayoutWithCacheInfo(ctx, nodes, edges, opts)
	return l, err
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, nodes []workflow.Node, edges []workflow.Edge, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Artifacts depend on the positions and on everything drawn inside a
	// node, so the key covers both.
	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	contentHash, err := ContentHash(nodes, edges)
	if err != nil {
		return nil, false, err
	}
	cacheKeyHash := cache.Hash(append(layoutData, contentHash...))

	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)
	if allCached {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := RenderFromLayout(ctx, l, nodes, edges, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, nodes []workflow.Node, edges []workflow.Edge, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, nodes, edges, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
