// Package pipeline provides the fetch → compile → render pipeline for trustchain.
//
// The CLI, the HTTP server and the watch TUI all go through a [Runner] so
// caching and validation behave the same at every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Load the chain analysis from the chain API or a local JSON file
//  2. Compile: Turn it into a [chaingraph.Graph]
//  3. Render: Serialize the graph as DOT, SVG, PDF, PNG or flow JSON
//
// Fetched chains are cached per domain and month; rendered artifacts are
// cached per graph content hash, so two domains with identical chains share
// artifacts.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, client, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Domain:  "example.com",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/chain"
	"github.com/matzehuels/trustchain/pkg/chaingraph"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// DefaultScale is the PNG scale factor when none is given.
const DefaultScale = 2.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Fetch options
	Domain  string `json:"domain,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Date    string `json:"date,omitempty"` // YYYY-MM month selector
	Refresh bool   `json:"refresh,omitempty"`
	Input   string `json:"-"` // Local chain JSON file; replaces the API fetch

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // Tooltips in DOT/SVG output
	Scale    float64  `json:"scale,omitempty"`    // PNG only

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Chain is the fetched chain analysis.
	Chain *chain.Response

	// Graph is the compiled graph.
	Graph *chaingraph.Graph

	// GraphHash is the content hash of the graph and summary.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Levels      int
	Clusters    int
	NodeCount   int
	EdgeCount   int
	FetchTime   time.Duration
	CompileTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FetchHit  bool // Whether the chain came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return tcerrors.New(tcerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates. "" yields nil.
func ParseFormats(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForFetch(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForFetch checks the chain source and normalizes Domain.
// A local Input file needs no domain.
func (o *Options) ValidateForFetch() error {
	if o.Input == "" {
		q, err := o.Query().Normalize()
		if err != nil {
			return err
		}
		o.Domain = q.Domain
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Query returns the chain API query for these options.
func (o *Options) Query() chainapi.Query {
	return chainapi.Query{Domain: o.Domain, UserID: o.UserID, Date: o.Date}
}

// ChainKeyOpts returns cache key options for the fetched chain.
func (o *Options) ChainKeyOpts() cache.ChainKeyOpts {
	return cache.ChainKeyOpts{Date: o.Date}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Scale only affects PNG, and Detailed does not affect flow JSON.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
	switch format {
	case FormatPNG:
		opts.Scale = o.Scale
	case FormatJSON:
		opts.Detailed = false
	}
	return opts
}
