package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/leaderline/internal/server"
)

// serveCommand creates the serve command for the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		maxBody int64
		timeout time.Duration
		flags   cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run the HTTP render service.

Routes:
  GET  /healthz            liveness and build info
  POST /v1/render?format=  render the posted scene (svg, png, json, msgpack)
  POST /v1/lines           computed line geometry of the posted scene as JSON

Use --redis to share the cache between replicas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, flags,
				server.WithMaxBodyBytes(maxBody),
				server.WithRequestTimeout(timeout))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum scene size in bytes")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultRequestTimeout, "per-request pipeline timeout")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, flags cacheFlags, opts ...server.Option) error {
	runner, err := c.newRunner(ctx, flags)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	return server.New(runner, c.Logger, opts...).ListenAndServe(ctx, addr)
}
