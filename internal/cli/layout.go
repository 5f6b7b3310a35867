package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags      layoutFlags
		output     string
		noCache    bool
		layoutOnly bool
	)

	cmd := &cobra.Command{
		Use:   "layout <graph.json|graph.yaml|->",
		Short: "Compute canvas positions for a graph",
		Long: `Compute canvas positions for a graph.

The laid out graph is written to --output (YAML when the name ends in .yaml
or .yml) or to stdout. With --layout-only only the placements are written.

Results are cached, so running it again on an unchanged graph is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], c.pipelineOptions(flags), output, noCache, layoutOnly)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&layoutOnly, "layout-only", false, "write the placements instead of the graph")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, opts pipeline.Options, output string, noCache, layoutOnly bool) error {
	ctx := cmd.Context()
	data, isYAML, err := readGraph(cmd, input)
	if err != nil {
		return err
	}
	opts.YAML = isYAML

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Parse(ctx, data, opts)
	if err != nil {
		printImportError(cmd.ErrOrStderr(), err)
		return errInvalidGraph
	}

	l, hit, err := c.computeLayout(ctx, cmd, runner, res, opts)
	if err != nil {
		return err
	}
	l.GraphID = res.Definition.ID

	if output == "" {
		if layoutOnly {
			return writeJSON(cmd.OutOrStdout(), l)
		}
		return graph.Write(l.ApplyTo(res.Definition), cmd.OutOrStdout())
	}

	if layoutOnly {
		err = graph.WriteLayoutFile(l, output)
	} else {
		err = graph.WriteFile(l.ApplyTo(res.Definition), output)
	}
	if err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "Layout complete")
	printFile(out, output)
	printStats(out, len(res.Nodes), len(res.Edges), hit)
	printWarnings(out, res.Warnings)
	fmt.Fprintln(out)
	printNextStep(out, "Render", appName+" render "+output)
	return nil
}

// computeLayout runs the layout stage behind a spinner.
func (c *CLI) computeLayout(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, res *graph.ImportResult, opts pipeline.Options) (graph.Layout, bool, error) {
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Laying out %d nodes...", len(res.Nodes)))
	spinner.Start()

	l, hit, err := runner.GenerateLayoutWithCacheInfo(ctx, res.Nodes, res.Edges, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return graph.Layout{}, false, fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return graph.Layout{}, false, ctx.Err()
	}
	prog.done("computed layout", "engine", l.Engine, "cached", hit)
	return l, hit, nil
}
