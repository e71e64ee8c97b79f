package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Output formats understood by [Convert].
const (
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// ErrNoConverter is returned when PDF or PNG output is requested but
// rsvg-convert is not installed.
var ErrNoConverter = errors.New("rsvg-convert not found (install librsvg: brew install librsvg, apt install librsvg2-bin)")

// converter is the rsvg-convert binary. Tests point it elsewhere.
var converter = "rsvg-convert"

// Convert returns svg in format. SVG passes through unchanged; PDF and PNG
// are produced by rsvg-convert, PNG at the given scale (1 when not
// positive).
func Convert(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatSVG, "":
		return svg, nil
	case FormatPDF:
		return rsvg(ctx, svg, "-f", FormatPDF)
	case FormatPNG:
		if scale <= 0 {
			scale = 1
		}
		return rsvg(ctx, svg, "-f", FormatPNG, "-z", strconv.FormatFloat(scale, 'f', 2, 64))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func rsvg(ctx context.Context, svg []byte, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(converter)
	if err != nil {
		return nil, ErrNoConverter
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("rsvg-convert: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("rsvg-convert: %w", err)
	}
	return stdout.Bytes(), nil
}
