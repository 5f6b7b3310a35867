package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/editor"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// newCommand creates the new command.
func (c *CLI) newCommand() *cobra.Command {
	var (
		output string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "new <type-id>...",
		Short: "Scaffold a graph from a chain of node types",
		Long: `Scaffold a graph from a chain of node types.

Each node is connected to the next one through their first main ports, the
graph is laid out and written to --output or stdout. With --save it is also
stored in the configured graph store.

Example:
  flowcanvas new ap.trigger.input ap.condition.expr ap.response.chat -o flow.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.scaffold(cmd, args)
			if err != nil {
				return err
			}
			def := s.Definition()
			out := cmd.OutOrStdout()

			if save {
				st, err := c.Config.OpenStore(cmd.Context())
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close(context.WithoutCancel(cmd.Context()))
				if def, err = s.Save(cmd.Context(), st); err != nil {
					printImportError(cmd.ErrOrStderr(), err)
					return err
				}
				printSuccess(out, "Saved graph %s", def.ID)
			}

			if output == "" {
				if save {
					return nil
				}
				return graph.Write(def, out)
			}
			if err := graph.WriteFile(def, output); err != nil {
				return err
			}
			printSuccess(out, "Created graph with %d nodes", len(def.Nodes))
			printFile(out, output)
			fmt.Fprintln(out)
			printNextStep(out, "Check it", appName+" validate "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&save, "save", false, "store the graph in the configured store")

	return cmd
}

// scaffold builds an editor session holding typeIDs as a connected, laid
// out chain.
func (c *CLI) scaffold(cmd *cobra.Command, typeIDs []string) (*editor.Session, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	lo, err := c.Config.LayoutOptions()
	if err != nil {
		return nil, err
	}
	s := editor.New(reg, editor.WithLogger(c.Logger), editor.WithLayoutOptions(lo))

	errOut := cmd.ErrOrStderr()
	var prev *workflow.Node
	for _, typeID := range typeIDs {
		n, warnings, err := s.AddNode(typeID, workflow.Position{})
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			printWarning(errOut, "%s: %s", n.ID, w)
		}
		if prev != nil {
			c.chain(s, reg.Get, *prev, n)
		}
		prev = &n
	}

	if _, err := s.AutoLayout(cmd.Context(), nil); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return s, nil
}

// chain connects from's first main output to to's first main input. Nodes
// without such ports stay unconnected.
func (c *CLI) chain(s *editor.Session, get func(string) (*nodedef.Definition, bool), from, to workflow.Node) {
	src, _ := get(from.TypeID)
	dst, _ := get(to.TypeID)
	out, okOut := firstMainPort(src.Outputs)
	in, okIn := firstMainPort(dst.Inputs)
	if !okOut || !okIn {
		c.Logger.Warn("left nodes unconnected", "from", from.TypeID, "to", to.TypeID)
		return
	}
	if _, err := s.Connect(from.ID, out, to.ID, in); err != nil {
		c.Logger.Warn("left nodes unconnected", "from", from.TypeID, "to", to.TypeID, "err", err)
	}
}

func firstMainPort(ports []nodedef.PortDef) (string, bool) {
	for _, p := range ports {
		if p.Type == nodedef.PortMain {
			return p.ID, true
		}
	}
	return "", false
}
