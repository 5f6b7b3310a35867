package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// migrateCommand creates the migrate command.
func (c *CLI) migrateCommand() *cobra.Command {
	var (
		output string
		write  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "migrate <graph.json|graph.yaml>",
		Short: "Upgrade node configs to their registered versions",
		Long: `Upgrade node configs to their registered versions.

Each node whose stored version lags its node type is run through the type's
migrations. Nodes of unknown types are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && output != "" {
				return fmt.Errorf("--write and --output are mutually exclusive")
			}
			input := args[0]
			data, isYAML, err := readGraph(cmd, input)
			if err != nil {
				return err
			}
			reg, err := c.Registry()
			if err != nil {
				return err
			}

			res, err := pipeline.Parse(cmd.Context(), reg, data, pipeline.Options{YAML: isYAML, KeepVersions: true})
			if err != nil {
				printImportError(cmd.ErrOrStderr(), err)
				return errInvalidGraph
			}

			out := cmd.OutOrStdout()
			upgraded := 0
			for i, n := range res.Nodes {
				next, err := reg.UpgradeNode(n)
				if err != nil {
					c.Logger.Debug("skipped node", "node", n.ID, "type", n.TypeID, "err", err)
					continue
				}
				if next.Version != n.Version {
					upgraded++
					printInfo(out, "%s: %s v%d %s v%d", n.ID, n.TypeID, n.Version, iconArrow, next.Version)
				}
				res.Nodes[i] = next
			}

			if upgraded == 0 {
				printSuccess(out, "All nodes are up to date")
				return nil
			}
			if dryRun {
				printDetail(out, "%d node(s) would be upgraded", upgraded)
				return nil
			}

			def := graph.ToCanonical(res.Nodes, res.Edges, res.Definition.ID)
			def.Version, def.Start = res.Definition.Version, res.Definition.Start
			switch {
			case write:
				output = input
			case output == "":
				return graph.Write(def, out)
			}
			if err := graph.WriteFile(def, output); err != nil {
				return err
			}
			printSuccess(out, "Upgraded %d node(s)", upgraded)
			printFile(out, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the input file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would change")

	return cmd
}
