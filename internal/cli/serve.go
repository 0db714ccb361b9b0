package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trustchain/internal/server"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve chain graphs over HTTP",
		Long: `Serve chain graphs over HTTP.

Routes:
  GET /healthz              status and version
  GET /graph/{domain}       rendered graph (?format=dot|svg|json&user_id=&date=&refresh=)
  GET /summary/{domain}     chain summary and graph statistics
  GET /metrics              Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := server.Options{
				Addr:           addr,
				CORSOrigins:    cfg.Server.CORSOrigins,
				RequestTimeout: cfg.Server.RequestTimeout.ToDuration(),
				ReadTimeout:    cfg.Server.ReadTimeout.ToDuration(),
				WriteTimeout:   cfg.Server.WriteTimeout.ToDuration(),
			}
			if cfg.Server.Metrics {
				m := server.NewMetrics()
				m.Register()
				opts.Metrics = m
			}

			c.Logger.Info("starting server", "api", cfg.APIURL, "cache", cfg.Cache.Backend, "metrics", cfg.Server.Metrics)
			return server.New(runner, c.Logger, opts).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
