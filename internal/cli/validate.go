package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// errInvalidGraph is returned after the rejection reasons were printed.
var errInvalidGraph = errors.New("graph is invalid")

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		opts       pipeline.Options
		noCache    bool
		printGraph bool
	)

	cmd := &cobra.Command{
		Use:   "validate <graph.json|graph.yaml|->",
		Short: "Check a graph document",
		Long: `Check a graph document.

Runs the import checks: every edge must reference existing nodes, node ids
must be unique, connected ports must be compatible, and node configs are
migrated to their registered versions. Advisory problems are printed as
warnings and do not fail the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, isYAML, err := readGraph(cmd, args[0])
			if err != nil {
				return err
			}
			opts.YAML = opts.YAML || isYAML

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			out := cmd.OutOrStdout()
			res, hit, err := runner.ParseWithCacheInfo(cmd.Context(), data, opts)
			if err != nil {
				var ie *graph.ImportError
				if errors.As(err, &ie) {
					printImportError(out, err)
					return errInvalidGraph
				}
				return err
			}

			if printGraph {
				return graph.Write(res.Definition, out)
			}
			printSuccess(out, "Graph is valid")
			printStats(out, len(res.Nodes), len(res.Edges), hit)
			if res.Definition.Start != "" {
				printDetail(out, "start: %s", res.Definition.Start)
			}
			printWarnings(out, res.Warnings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "read the input as YAML")
	cmd.Flags().BoolVar(&opts.KeepVersions, "keep-versions", false, "do not migrate node configs")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&printGraph, "print", "p", false, "print the normalized graph as JSON")

	return cmd
}
