package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	input    string
	output   string
	formats  string
	userID   string
	date     string
	refresh  bool
	noCache  bool
	detailed bool
	scale    float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [domain]",
		Short: "Render the chain of trust of a domain",
		Long: `Render the DNSSEC chain of trust of a domain.

The chain is fetched from the chain API (or read from --input), compiled
into a graph and written in every requested format. Chains and rendered
outputs are cached locally; --refresh bypasses the cache for this run.

Formats: dot, svg (default), png, pdf, json. PNG and PDF need rsvg-convert.`,
		Example: `  trustchain render example.com
  trustchain render example.com -f dot,svg -o graphs/example
  trustchain render example.com --date 2024-05 -f json -o -
  trustchain render --input chain.json -f svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.renderOptions(cmd, args, flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "read the chain from a local JSON file instead of the API")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): dot, svg, png, pdf, json (comma-separated)")
	cmd.Flags().StringVar(&flags.userID, "user", "", "user id forwarded to the chain API")
	cmd.Flags().StringVar(&flags.date, "date", "", "month to analyze (YYYY-MM, default current)")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass cached chains")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add record tooltips to DOT and SVG output")
	cmd.Flags().Float64Var(&flags.scale, "scale", 0, "PNG scale factor (default 2)")

	return cmd
}

// renderOptions merges flags, arguments and config defaults.
func (c *CLI) renderOptions(cmd *cobra.Command, args []string, flags renderFlags) (pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Input:    flags.input,
		UserID:   flags.userID,
		Date:     flags.date,
		Refresh:  flags.refresh,
		Formats:  pipeline.ParseFormats(flags.formats),
		Detailed: flags.detailed,
		Scale:    flags.scale,
		Logger:   c.Logger,
	}
	if len(args) == 1 {
		opts.Domain = args[0]
	}
	if opts.Domain == "" && opts.Input == "" {
		return opts, tcerrors.New(tcerrors.ErrCodeInvalidInput, "a domain or --input is required")
	}
	if opts.UserID == "" {
		opts.UserID = cfg.UserID
	}
	if len(opts.Formats) == 0 {
		opts.Formats = cfg.Render.Formats
	}
	if !cmd.Flags().Changed("detailed") {
		opts.Detailed = cfg.Render.Detailed
	}
	if opts.Scale <= 0 {
		opts.Scale = cfg.Render.Scale
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	if flags.output == stdoutPath && len(opts.Formats) > 1 {
		return opts, tcerrors.New(tcerrors.ErrCodeInvalidInput, "-o - needs exactly one format")
	}
	return opts, nil
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, stdout io.Writer, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	name := opts.Domain
	if name == "" {
		name = filepath.Base(opts.Input)
	}
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", name))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if flags.output == stdoutPath {
		_, err := stdout.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(outputBase(flags.output, opts), opts.Formats)
	for _, format := range opts.Formats {
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	prog.done("Rendered " + name)

	printSuccess("Rendered %s", StyleHighlight.Render(name))
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.FetchHit)
	if result.Chain.IsEmpty() {
		printWarning("The chain API returned no levels for %s", name)
	}
	printChainSummary(result.Chain.Summary)
	return nil
}

// outputBase derives the base output path. Without -o it is the domain,
// or the input file name without its extension.
func outputBase(output string, opts pipeline.Options) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if opts.Domain != "" {
		return opts.Domain
	}
	base := filepath.Base(opts.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outputPaths maps each format to base.<format>.
func outputPaths(base string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
