// Package render paints chartgeom frames. Three back ends share one frame:
// Canvas strokes the exact frame geometry through go-chart's 2D renderer,
// Chart rebuilds the chart with go-chart's own axes and legend, and Plot uses
// gonum/plot (the only one that writes PDF).
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
)

// Format is an output encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
	PDF Format = "pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrUnknownBackend    = errors.New("unknown render back end")
	ErrEmptyFrame        = errors.New("nothing to draw")
)

// ParseFormat accepts png, svg or pdf, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case "":
		return PNG, nil
	case PNG, SVG, PDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PDF:
		return "application/pdf"
	}
	return "image/png"
}

// Ext is the file extension for f, with the dot.
func (f Format) Ext() string { return "." + string(f) }

// Backend draws a frame in one of its supported formats.
type Backend interface {
	Name() string
	Supports(Format) bool
	Render(w io.Writer, f chartgeom.Frame, format Format) error
}

// Backend names.
const (
	BackendCanvas = "canvas"
	BackendChart  = "chart"
	BackendPlot   = "plot"
)

// Backends lists the available back end names.
var Backends = []string{BackendCanvas, BackendChart, BackendPlot}

// New returns the named back end with palette p.
func New(name string, p Palette) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendCanvas, "":
		return &Canvas{Palette: p}, nil
	case BackendChart, "gochart":
		return &Chart{Palette: p}, nil
	case BackendPlot, "gonum":
		return &Plot{Palette: p}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Palette holds the colours a back end paints with.
type Palette struct {
	Actual     drawing.Color
	Benchmark  drawing.Color
	Text       drawing.Color
	Axis       drawing.Color
	Background drawing.Color
	LegendFill drawing.Color
}

var (
	steelBlue = drawing.Color{R: 70, G: 130, B: 180, A: 255}
	seaGreen  = drawing.Color{R: 46, G: 139, B: 87, A: 255}
)

// LightPalette is dark text on white.
var LightPalette = Palette{
	Actual:     steelBlue,
	Benchmark:  seaGreen,
	Text:       drawing.Color{R: 34, G: 34, B: 34, A: 255},
	Axis:       drawing.Color{R: 51, G: 51, B: 51, A: 255},
	Background: drawing.Color{R: 255, G: 255, B: 255, A: 255},
	LegendFill: drawing.Color{R: 244, G: 244, B: 244, A: 255},
}

// DarkPalette matches the viewer's dark theme.
var DarkPalette = Palette{
	Actual:     drawing.Color{R: 100, G: 160, B: 215, A: 255},
	Benchmark:  drawing.Color{R: 72, G: 180, B: 120, A: 255},
	Text:       drawing.Color{R: 230, G: 230, B: 230, A: 255},
	Axis:       drawing.Color{R: 170, G: 170, B: 170, A: 255},
	Background: drawing.Color{R: 18, G: 18, B: 18, A: 255},
	LegendFill: drawing.Color{R: 40, G: 40, B: 40, A: 255},
}

// PaletteByName returns "light" (default) or "dark".
func PaletteByName(name string) Palette {
	if strings.EqualFold(strings.TrimSpace(name), "dark") {
		return DarkPalette
	}
	return LightPalette
}

// Role returns the colour for an element role.
func (p Palette) Role(r chartgeom.Role) drawing.Color {
	switch r {
	case chartgeom.RoleActual:
		return p.Actual
	case chartgeom.RoleBenchmark:
		return p.Benchmark
	}
	return p.Text
}

// Image renders f to PNG with b and decodes it, for callers that composite
// the chart (the viewer, screenshots).
func Image(b Backend, f chartgeom.Frame) (image.Image, error) {
	var buf bytes.Buffer
	if err := b.Render(&buf, f, PNG); err != nil {
		return nil, err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode %s output: %w", b.Name(), err)
	}
	return img, nil
}
