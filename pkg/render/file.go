package render

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// Formats accepted by WriteFile.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// FormatFor returns the output format implied by path's extension.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case FormatSVG, FormatPNG, FormatDOT:
		return ext, nil
	case "gv":
		return FormatDOT, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported image format %q (want .svg, .png or .dot)", filepath.Ext(path))
	}
}

// Render produces the bytes for format.
func Render(ctx context.Context, format string, p *problem.Problem, sol *problem.Solution, opts ...SVGOption) ([]byte, error) {
	switch format {
	case FormatSVG:
		return SVG(p, sol, opts...), nil
	case FormatDOT:
		return []byte(ToDOT(p, sol)), nil
	case FormatPNG:
		return RenderPNG(ctx, ToDOT(p, sol))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported image format %q", format)
	}
}

// WriteFile renders to path, creating parent directories.
func WriteFile(ctx context.Context, path string, p *problem.Problem, sol *problem.Solution, opts ...SVGOption) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Render(ctx, format, p, sol, opts...)
	if err != nil {
		return err
	}
	return problem.WriteFileAtomic(path, data)
}
