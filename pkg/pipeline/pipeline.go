// Package pipeline provides the import → layout → render pipeline shared by
// the CLI and the API server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Decode a JSON or YAML graph and run the import checks
//  2. Layout: Compute canvas positions for the imported nodes
//  3. Render: Draw the laid out graph as SVG, PNG or DOT
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage's result is cached under a content-hash key so repeated
// requests for the same graph and options skip the work.
//
// # Usage
//
//	runner := pipeline.NewRunner(registry.Builtin(), cache, nil, logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{
//	    Direction: "DOWN",
//	    Formats:   []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	imported, err := runner.Parse(ctx, data, opts)
//	l, err := runner.GenerateLayout(ctx, imported.Nodes, imported.Edges, opts)
//	artifacts, err := runner.Render(ctx, l, imported.Nodes, imported.Edges, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/render/nodelink"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	YAML         bool `json:"yaml,omitempty"`
	KeepVersions bool `json:"keep_versions,omitempty"`
	Refresh      bool `json:"refresh,omitempty"`

	// Layout options
	Engine       string                   `json:"engine,omitempty"`
	Direction    string                   `json:"direction,omitempty"`
	LayerSpacing float64                  `json:"layer_spacing,omitempty"`
	NodeSpacing  float64                  `json:"node_spacing,omitempty"`
	GridSize     float64                  `json:"grid_size,omitempty"`
	Sizes        map[string]workflow.Size `json:"sizes,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Import is the checked graph with its advisory warnings.
	Import *graph.ImportResult

	// GraphHash is the content hash of the graph structure.
	GraphHash string

	Layout graph.Layout

	// Nodes are the imported nodes moved to their layout positions.
	Nodes []workflow.Node

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Definition returns the laid out graph in canonical form.
func (r *Result) Definition() graph.Definition {
	def := graph.ToCanonical(r.Nodes, r.Import.Edges, r.Import.Definition.ID)
	def.Start = r.Import.Definition.Start
	return def
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool
	LayoutHit bool
	RenderHit bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if format == "" {
		return fmt.Errorf("empty format")
	}
	_, err := nodelink.ParseFormat(format)
	return err
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults for the full pipeline and checks
// every option. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills in unset layout options.
func (o *Options) SetLayoutDefaults() {
	if o.Engine == "" {
		o.Engine = string(layout.EngineLayered)
	}
	if o.Direction == "" {
		o.Direction = string(layout.DirectionRight)
	}
	if o.LayerSpacing <= 0 {
		o.LayerSpacing = layout.DefaultLayerSpacing
	}
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = layout.DefaultNodeSpacing
	}
	if o.GridSize <= 0 {
		o.GridSize = layout.DefaultGridSize
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForLayout sets layout defaults and checks engine and direction.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	_, err := o.LayoutOptions()
	return err
}

// SetRenderDefaults fills in unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{string(nodelink.FormatSVG)}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender sets render defaults and checks the formats.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutOptions converts the pipeline options into layout options.
func (o *Options) LayoutOptions() (layout.Options, error) {
	engine, err := layout.ParseEngine(o.Engine)
	if err != nil {
		return layout.Options{}, err
	}
	dir, err := layout.ParseDirection(o.Direction)
	if err != nil {
		return layout.Options{}, err
	}
	return layout.Options{
		Engine:       engine,
		Direction:    dir,
		LayerSpacing: o.LayerSpacing,
		NodeSpacing:  o.NodeSpacing,
		GridSize:     o.GridSize,
		Logger:       o.Logger,
	}.WithDefaults(), nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(sizesHash string) cache.LayoutKeyOpts {
	lo, _ := o.LayoutOptions()
	return cache.LayoutKeyOpts{
		Engine:       string(lo.Engine),
		Direction:    string(lo.Direction),
		LayerSpacing: lo.LayerSpacing,
		NodeSpacing:  lo.NodeSpacing,
		GridSize:     lo.GridSize,
		SizesHash:    sizesHash,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
