package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trustchain/internal/config"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var asTOML bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if asTOML {
				return cfg.Write(cmd.OutOrStdout())
			}
			printKeyValue("api", cfg.APIURL)
			printKeyValue("user", orNone(cfg.UserID))
			printKeyValue("cache", cfg.Cache.Backend)
			if dir, err := cacheDir(cfg); err == nil && cfg.Cache.Backend == "file" {
				printKeyValue("cache dir", dir)
			}
			printKeyValue("chain ttl", cfg.Cache.ChainTTL.String())
			printKeyValue("retries", strconv.Itoa(cfg.Retry))
			printKeyValue("listen", cfg.Server.Addr)
			printKeyValue("formats", strings.Join(cfg.Render.Formats, ","))
			return nil
		},
	}
	show.Flags().BoolVar(&asTOML, "toml", false, "print as TOML")
	cmd.AddCommand(show)

	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
