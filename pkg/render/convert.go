package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ConverterBinary is the librsvg tool used for PDF and PNG output.
const ConverterBinary = "rsvg-convert"

// ErrConverterMissing is returned when rsvg-convert is not on PATH.
var ErrConverterMissing = errors.New("rsvg-convert not found")

// ToPDF converts SVG bytes to PDF.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG at the given scale factor.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// Available reports whether PDF and PNG conversion can run on this host.
func Available() bool {
	_, err := exec.LookPath(ConverterBinary)
	return err == nil
}

func convert(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	if !Available() {
		return nil, fmt.Errorf("%s export: %w. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format, ErrConverterMissing)
	}

	args := append([]string{"-f", format}, extra...)
	cmd := exec.CommandContext(ctx, ConverterBinary, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", ConverterBinary, err, stderr.String())
	}
	return out.Bytes(), nil
}
