package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/chain"
	"github.com/matzehuels/trustchain/pkg/chaingraph"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/render/dot"
	"github.com/matzehuels/trustchain/pkg/render/flow"
)

// Render generates output artifacts in the requested formats. The summary
// is embedded in flow JSON and ignored by the other formats.
func Render(ctx context.Context, g *chaingraph.Graph, summary *chain.Summary, opts Options) (map[string][]byte, error) {
	src := dot.ToDOT(g, dot.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(src)
		case FormatSVG:
			data, err = dot.RenderSVG(ctx, src)
		case FormatPNG:
			data, err = dot.RenderPNG(ctx, src, opts.Scale)
		case FormatPDF:
			data, err = dot.RenderPDF(ctx, src)
		case FormatJSON:
			data, err = flow.RenderJSON(g, flow.WithSummary(summary))
		default:
			return nil, tcerrors.New(tcerrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// ContentHash identifies what a graph renders to: the detailed DOT text
// plus the summary carried into flow JSON.
func ContentHash(g *chaingraph.Graph, summary *chain.Summary) string {
	data := []byte(dot.ToDOT(g, dot.Options{Detailed: true}))
	if summary != nil {
		if s, err := json.Marshal(summary); err == nil {
			data = append(data, s...)
		}
	}
	return cache.Hash(data)
}
