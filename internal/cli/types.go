package cli

import (
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/registry"
)

// typesCommand creates the node type catalog commands.
func (c *CLI) typesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "types",
		Aliases: []string{"type"},
		Short:   "Inspect the registered node types",
	}

	cmd.AddCommand(c.typesListCommand())
	cmd.AddCommand(c.typesShowCommand())
	cmd.AddCommand(c.typesBrowseCommand())

	return cmd
}

func (c *CLI) typesListCommand() *cobra.Command {
	var (
		q      registry.Query
		cat    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List node types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.Registry()
			if err != nil {
				return err
			}
			q.Category = nodedef.Category(cat)
			defs := reg.Find(q)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, defs)
			}
			if len(defs) == 0 {
				printInfo(out, "No matching node types")
				return nil
			}
			fmt.Fprintln(out, typeTable(defs, -1))
			printDetail(out, "%d of %d types", len(defs), reg.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&cat, "category", "c", "", "only this category")
	cmd.Flags().StringSliceVarP(&q.Tags, "tag", "t", nil, "only types carrying any of these tags")
	cmd.Flags().StringVarP(&q.Text, "query", "q", "", "match name, description or tags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print definitions as JSON")

	return cmd
}

func (c *CLI) typesShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <type-id>",
		Short: "Show one node type",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			reg, err := c.Registry()
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ids := make([]string, 0, reg.Len())
			for _, d := range reg.All() {
				ids = append(ids, d.TypeID)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.Registry()
			if err != nil {
				return err
			}
			def, err := reg.Lookup(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), def)
			}
			printDefinition(cmd.OutOrStdout(), def)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the definition as JSON")
	return cmd
}

func (c *CLI) typesBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse node types interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.Registry()
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewTypeBrowserModel(reg.All()), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(TypeBrowserModel); ok && m.Selected != nil {
				printDefinition(cmd.OutOrStdout(), m.Selected)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
