// Package cli implements the trustchain command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trustchain/internal/config"
	"github.com/matzehuels/trustchain/pkg/buildinfo"
	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/integrations"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "trustchain"

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

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Trustchain draws DNSSEC chains of trust",
		Long: `Trustchain fetches the DNSSEC chain of trust of a domain from a chain API
and compiles it into a graph: one cluster per zone from the root down, with
key-signing keys, zone-signing keys and DS records linked across delegations.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/trustchain/config.toml)")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = &cfg
	c.Logger.Debug("loaded config", "api", cfg.APIURL, "cache", cfg.Cache.Backend)
	return c.cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The runner caches
// chains and artifacts; the chain API client gets no cache of its own.
// noCache disables caching altogether.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := chainapi.NewClient(cfg.APIURL, nil, 0,
		integrations.WithRetryPolicy(cfg.RetryPolicy()))
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(c.newCache(ctx, cfg, noCache), nil, client, c.Logger)
	runner.ChainTTL = cfg.Cache.ChainTTL.ToDuration()
	return runner, nil
}

// newCache opens the configured backend. A backend that can't be opened
// (unwritable dir, redis down) degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	store, err := cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache disabled", "backend", cfg.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return store
}
