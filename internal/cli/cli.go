// Package cli implements the flowcanvas command-line interface.
//
// # Commands
//
//   - types: list, show and browse the registered node types
//   - validate: run the import checks on a graph file
//   - layout: compute canvas positions and write them into a graph file
//   - render: draw a graph as SVG, PNG or DOT
//   - migrate: upgrade node configs to their registered versions
//   - new: scaffold a graph from a chain of node types
//   - serve: run the HTTP API
//   - cache, config: inspect and manage local state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Log lines
// go to stderr; command output goes to stdout.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/registry"
)

const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	registry   *registry.Registry
}

// New creates a CLI that logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "flowcanvas edits, lays out and serves workflow graphs",
		Long:          `flowcanvas manages visual workflow graphs: a catalog of node types, import checks for graph documents, automatic layout, rendering and an HTTP API for editors.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowcanvas/config.toml)")

	root.AddCommand(c.typesCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.newCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, resolving the default location when
// --config is not given.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.configPath = path
	c.Logger.Debug("loaded config", "path", path, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return nil
}

// =============================================================================
// Registry and Runner
// =============================================================================

// Registry returns the node type registry: the built-in catalog plus every
// catalog file named in the config. It is built once and frozen.
func (c *CLI) Registry() (*registry.Registry, error) {
	if c.registry != nil {
		return c.registry, nil
	}
	reg := registry.New(registry.WithEnv(registry.BuiltinEnv()), registry.WithLogger(c.Logger))
	reg.MustRegister(registry.BuiltinDefinitions()...)
	for _, path := range c.Config.Catalogs {
		n, err := reg.LoadCatalogFile(path)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", path, err)
		}
		c.Logger.Debug("loaded catalog", "path", path, "types", n)
	}
	reg.Freeze()
	c.registry = reg
	return reg, nil
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	var ch cache.Cache = cache.NewNullCache()
	if !noCache {
		if ch, err = c.Config.OpenCache(ctx); err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
	}
	return pipeline.NewRunner(reg, ch, cacheKeyer(), c.Logger), nil
}

// cacheKeyer scopes cache entries to the running build, so a new release
// never serves layouts computed by an older engine.
func cacheKeyer() cache.Keyer {
	return cache.NewScopedKeyer(nil, buildinfo.Version+":")
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the layout flags shared by layout and render. Unset
// flags fall back to the config file.
type layoutFlags struct {
	engine       string
	direction    string
	layerSpacing float64
	nodeSpacing  float64
	gridSize     float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.engine, "engine", "", "layout engine: layered, graphviz")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "flow direction: RIGHT, DOWN, LEFT, UP")
	cmd.Flags().Float64Var(&f.layerSpacing, "layer-spacing", 0, "gap between layers")
	cmd.Flags().Float64Var(&f.nodeSpacing, "node-spacing", 0, "gap between nodes in a layer")
	cmd.Flags().Float64Var(&f.gridSize, "grid", 0, "snap positions to this grid")
}

// pipelineOptions merges the flags over the configured layout defaults.
func (c *CLI) pipelineOptions(f layoutFlags) pipeline.Options {
	opts := pipeline.Options{
		Engine:       firstNonEmpty(f.engine, c.Config.Layout.Engine),
		Direction:    strings.ToUpper(firstNonEmpty(f.direction, c.Config.Layout.Direction)),
		LayerSpacing: firstNonZero(f.layerSpacing, c.Config.Layout.LayerSpacing),
		NodeSpacing:  firstNonZero(f.nodeSpacing, c.Config.Layout.NodeSpacing),
		GridSize:     firstNonZero(f.gridSize, c.Config.Layout.GridSize),
		Logger:       c.Logger,
	}
	return opts
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}

// readGraph reads a graph document from path ("-" for stdin).
func readGraph(cmd *cobra.Command, path string) ([]byte, bool, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, graph.IsYAMLPath(path), nil
}
