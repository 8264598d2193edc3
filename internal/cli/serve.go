package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/internal/api"
	"github.com/matzehuels/linkgraph/internal/metrics"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependency queries over HTTP",
		Long: `Serve builds the graph once and answers read-only queries over HTTP until
interrupted. Prometheus metrics are exposed at /metrics.

Routes:
  GET /healthz
  GET /v1/snapshot
  GET /v1/abis
  GET /v1/{abi}/objects
  GET /v1/{abi}/libraries
  GET /v1/{abi}/deps?object=PATH[&direct=true]
  GET /v1/{abi}/rdeps?soname=SONAME
  GET /v1/{abi}/unresolved`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			m := metrics.New()
			m.Register()

			runner := c.newRunner(ctx)
			defer runner.Close()
			res, err := c.loadResult(ctx, runner)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Serve.Addr
			}
			router := api.NewRouter(res, api.Options{Logger: logger, Metrics: m.Handler()})
			printInfo(cmd.ErrOrStderr(), "Serving %s on http://%s", plural(res.Stats.Objects, "object"), addr)
			return api.Serve(ctx, addr, router, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", api.DefaultAddr, "listen address")
	return cmd
}
