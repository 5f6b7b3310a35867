package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Graphs are kept in the configured store (file, memory, mongo or postgres)
and layouts and renders in the configured cache. The server stops
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	reg, err := c.Registry()
	if err != nil {
		return err
	}
	lo, err := c.Config.LayoutOptions()
	if err != nil {
		return fmt.Errorf("layout config: %w", err)
	}

	st, err := c.Config.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close(context.WithoutCancel(ctx))

	ch, err := c.Config.OpenCache(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	runner := pipeline.NewRunner(reg, ch, cacheKeyer(), c.Logger)
	defer runner.Close()

	srv := server.New(reg, st, runner, server.Options{
		Logger:          c.Logger,
		Layout:          lo,
		RequestTimeout:  c.Config.Server.RequestTimeout,
		ShutdownTimeout: c.Config.Server.ShutdownTimeout,
		MaxBodyBytes:    c.Config.Server.MaxBodyBytes,
	})

	c.Logger.Info("serving",
		"addr", addr,
		"types", reg.Len(),
		"store", c.Config.Store.Backend,
		"cache", c.Config.Cache.Backend)
	return srv.ListenAndServe(ctx, addr)
}
