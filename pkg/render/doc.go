// Package render converts rendered trust-chain graphs between output formats.
//
// # Overview
//
// Serializers for the compiled graph live in subpackages:
//
//   - [dot]: Graphviz DOT text and in-process SVG rendering
//   - [flow]: node/edge documents for interactive diagram front ends
//
// This package holds the format conversion shared by them. [ToPDF] and
// [ToPNG] turn SVG into other formats using the external rsvg-convert tool
// (from librsvg):
//
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(g, dot.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [dot]: github.com/matzehuels/trustchain/pkg/render/dot
// [flow]: github.com/matzehuels/trustchain/pkg/render/flow
package render
