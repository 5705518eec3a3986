package render

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

func testFrame(opts chartgeom.Options, deltas ...float64) chartgeom.Frame {
	s := analysis.SubjectSeries{SubjectID: "alice"}
	w0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cum := 0.0
	for i, d := range deltas {
		cum += d
		s.Records = append(s.Records, progress.WeeklyRecord{
			SubjectID: "alice", Week: w0.AddDate(0, 0, 7*i), CumulativeActual: cum,
			ClassroomBenchmark: float64(50 * (i + 1)), WeeklyDelta: d,
		})
	}
	return chartgeom.Build(s, chartgeom.Viewport{Width: 900, Height: 600}, opts)
}

func near(a, b uint32) bool {
	d := int(a>>8) - int(b)
	return d > -12 && d < 12
}

func TestCanvas_PNG(t *testing.T) {
	f := testFrame(chartgeom.PresetHeadline, 0, 80, 0, 60, 40, 0)
	b, _ := New(BackendCanvas, LightPalette)
	var buf bytes.Buffer
	if err := b.Render(&buf, f, PNG); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w, h := f.Layout.PixelSize()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Fatalf("size %v want %dx%d", img.Bounds(), w, h)
	}
	// background corner below the legend
	r, g, bl, _ := img.At(2, h-2).RGBA()
	if !near(r, 255) || !near(g, 255) || !near(bl, 255) {
		t.Fatalf("background not white: %d %d %d", r>>8, g>>8, bl>>8)
	}
	m := f.Markers[0]
	r, g, bl, _ = img.At(int(m.X), int(m.Y)).RGBA()
	if !near(r, 70) || !near(g, 130) || !near(bl, 180) {
		t.Fatalf("first marker not steelblue: %d %d %d", r>>8, g>>8, bl>>8)
	}
}

func TestCanvas_SVGAndEmptyFrame(t *testing.T) {
	b := &Canvas{Palette: LightPalette}
	var buf bytes.Buffer
	if err := b.Render(&buf, testFrame(chartgeom.PresetTrimmed, 1, 2, 3), SVG); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("not an svg document")
	}
	buf.Reset()
	empty := chartgeom.Build(analysis.SubjectSeries{SubjectID: "ghost"}, chartgeom.Viewport{Width: 400, Height: 300}, chartgeom.PresetTrimmed)
	if err := b.Render(&buf, empty, PNG); err != nil {
		t.Fatalf("empty frame should still render axes: %v", err)
	}
	if err := b.Render(&buf, empty, PDF); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("canvas pdf should be unsupported, got %v", err)
	}
}

func TestChartBackend(t *testing.T) {
	b := &Chart{Palette: DarkPalette}
	f := testFrame(chartgeom.PresetHeadline, 0, 5, 10, 0)
	img, err := Image(b, f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	w, h := f.Layout.PixelSize()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Fatalf("size %v", img.Bounds())
	}
	inactive := testFrame(chartgeom.PresetTrimmed, 0, 0, 0)
	if _, err := Image(b, inactive); err != nil {
		t.Fatalf("benchmark-only chart should render: %v", err)
	}
	empty := chartgeom.Build(analysis.SubjectSeries{}, chartgeom.Viewport{Width: 400, Height: 300}, chartgeom.PresetTrimmed)
	if _, err := Image(b, empty); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestPlotBackend_Formats(t *testing.T) {
	b := &Plot{Palette: LightPalette}
	f := testFrame(chartgeom.PresetTrimmed, 0, 30, 20, 0)
	for _, format := range []Format{PNG, SVG, PDF} {
		var buf bytes.Buffer
		if err := b.Render(&buf, f, format); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("%s: empty output", format)
		}
	}
	var buf bytes.Buffer
	_ = b.Render(&buf, f, PDF)
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf header missing")
	}
}

func TestNoticeAndHint(t *testing.T) {
	var buf bytes.Buffer
	if err := Notice(&buf, 320, 200, "No data for subject", PNG, LightPalette); err != nil {
		t.Fatalf("notice: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil || img.Bounds().Dx() != 320 {
		t.Fatalf("notice decode: %v", err)
	}
	blank := Blank(50, 40, DarkPalette)
	hinted := DrawHint(blank, "hi")
	if hinted.Bounds() != blank.Bounds() {
		t.Fatalf("hint changed bounds")
	}
	if DrawHint(blank, "  ") != blank {
		t.Fatalf("blank hint should return the input")
	}
}

func TestParseFormatAndNew(t *testing.T) {
	cases := map[string]Format{"png": PNG, ".SVG": SVG, "pdf": PDF, "": PNG}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: %v %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("gif: %v", err)
	}
	if SVG.ContentType() != "image/svg+xml" || PDF.Ext() != ".pdf" {
		t.Fatalf("format helpers wrong")
	}
	for _, name := range Backends {
		b, err := New(name, LightPalette)
		if err != nil || b.Name() != name {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if _, err := New("ascii", LightPalette); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend")
	}
	if PaletteByName("dark") != DarkPalette || PaletteByName("x") != LightPalette {
		t.Fatalf("palette lookup wrong")
	}
}

func TestBackends_DrawEveryCallout(t *testing.T) {
	f := testFrame(chartgeom.PresetHeadline, 0, 5, 10, 0)
	if len(f.Callouts) != 3 {
		t.Fatalf("expected 3 callouts, got %+v", f.Callouts)
	}
	for _, b := range []Backend{&Canvas{Palette: LightPalette}, &Chart{Palette: LightPalette}, &Plot{Palette: LightPalette}} {
		var buf bytes.Buffer
		if err := b.Render(&buf, f, SVG); err != nil {
			t.Fatalf("%s: %v", b.Name(), err)
		}
		for _, c := range f.Callouts {
			if !strings.Contains(buf.String(), c.Text) {
				t.Fatalf("%s: callout %q missing", b.Name(), c.Text)
			}
		}
	}
}
