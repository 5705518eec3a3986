package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
)

// Plot draws the frame with gonum/plot. X values are Unix seconds; the frame's
// week ticks are passed through as constant ticks.
type Plot struct {
	Palette Palette
}

func (p *Plot) Name() string { return BackendPlot }

func (p *Plot) Supports(f Format) bool { return f == PNG || f == SVG || f == PDF }

func xys(line chartgeom.Polyline) plotter.XYs {
	pts := make(plotter.XYs, 0, len(line.Points))
	for _, pt := range line.Points {
		pts = append(pts, plotter.XY{X: float64(pt.Week.Unix()), Y: pt.Value})
	}
	return pts
}

func (p *Plot) Render(w io.Writer, f chartgeom.Frame, format Format) error {
	if !p.Supports(format) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if f.Empty || len(f.Benchmark.Points) == 0 {
		return fmt.Errorf("%w: %s has no plottable weeks", ErrEmptyFrame, f.SubjectID)
	}
	pl := plot.New()
	pl.BackgroundColor = p.Palette.Background
	if f.Headline != nil {
		pl.Title.Text = f.Headline.Text.Text
		pl.Title.TextStyle.Color = p.Palette.Actual
	} else {
		pl.Title.Text = f.SubjectID
		pl.Title.TextStyle.Color = p.Palette.Text
	}
	pl.X.Label.Text = f.XTitle.Text
	pl.Y.Label.Text = f.YTitle.Text
	for _, ax := range []*plot.Axis{&pl.X, &pl.Y} {
		ax.Color = p.Palette.Axis
		ax.Label.TextStyle.Color = p.Palette.Text
		ax.Tick.Color = p.Palette.Axis
		ax.Tick.Label.Color = p.Palette.Text
	}
	pl.X.Tick.Label.Rotation = f.TickRotation * 3.141592653589793 / 180
	pl.X.Tick.Label.XAlign = draw.XRight

	lo, hi := float64(f.X.Domain[0].Unix()), float64(f.X.Domain[1].Unix())
	if hi <= lo {
		lo, hi = lo-3*86400, hi+3*86400
	}
	pl.X.Min, pl.X.Max = lo, hi
	pl.Y.Min, pl.Y.Max = 0, f.Y.Domain[1]
	if pl.Y.Max <= 0 {
		pl.Y.Max = 1
	}
	pl.X.Tick.Marker = plot.ConstantTicks(constTicks(f.XTicks, true))
	pl.Y.Tick.Marker = plot.ConstantTicks(constTicks(f.YTicks, false))

	bench, err := plotter.NewLine(xys(f.Benchmark))
	if err != nil {
		return fmt.Errorf("benchmark line: %w", err)
	}
	bench.LineStyle.Color = p.Palette.Benchmark
	bench.LineStyle.Width = vg.Points(lineWidth * 0.75)
	pl.Add(bench)

	var actual *plotter.Line
	if len(f.Actual.Points) > 0 {
		actual, err = plotter.NewLine(xys(f.Actual))
		if err != nil {
			return fmt.Errorf("actual line: %w", err)
		}
		actual.LineStyle.Color = p.Palette.Actual
		actual.LineStyle.Width = vg.Points(lineWidth * 0.75)
		pl.Add(actual)
	}
	if actual != nil {
		pl.Legend.Add(chartgeom.LegendActual, actual)
	}
	pl.Legend.Add(chartgeom.LegendBenchmark, bench)
	pl.Legend.Top = true
	pl.Legend.TextStyle.Color = p.Palette.Text

	if err := p.addMarkers(pl, f); err != nil {
		return err
	}

	width, height := f.Layout.PixelSize()
	wt, err := pl.WriterTo(pxToPoints(width), pxToPoints(height), string(format))
	if err != nil {
		return fmt.Errorf("plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

// pxToPoints sizes the canvas so raster output at vgimg's default 96 dpi has
// the frame's pixel dimensions.
func pxToPoints(px int) vg.Length {
	return vg.Length(float64(px) * float64(vg.Inch) / float64(vgimg.DefaultDPI))
}

func constTicks(in []chartgeom.Tick, useTime bool) []plot.Tick {
	out := make([]plot.Tick, 0, len(in))
	for _, t := range in {
		v := t.Value
		if useTime {
			v = float64(t.Time.Unix())
		}
		out = append(out, plot.Tick{Value: v, Label: t.Label})
	}
	return out
}

func (p *Plot) addMarkers(pl *plot.Plot, f chartgeom.Frame) error {
	if len(f.Markers) == 0 {
		return nil
	}
	for _, m := range f.Markers {
		sc, err := plotter.NewScatter(plotter.XYs{{X: float64(m.Week.Unix()), Y: m.Value}})
		if err != nil {
			return fmt.Errorf("marker: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(m.Radius * 0.75)
		sc.GlyphStyle.Color = p.Palette.Role(m.Role)
		pl.Add(sc)
	}
	// callouts are anchored to the marker they describe; pixel offsets from
	// the frame are kept as point offsets
	var actual, bench plotter.XYLabels
	for _, t := range f.Callouts {
		week, value := f.X.Invert(t.X-15), f.Y.Invert(t.Y)
		target := &actual
		if t.Role == chartgeom.RoleBenchmark {
			target = &bench
		}
		target.XYs = append(target.XYs, plotter.XY{X: float64(week.Unix()), Y: value})
		target.Labels = append(target.Labels, t.Text)
	}
	for _, set := range []struct {
		labels plotter.XYLabels
		col    color.Color
	}{{actual, p.Palette.Actual}, {bench, p.Palette.Benchmark}} {
		if len(set.labels.XYs) == 0 {
			continue
		}
		lb, err := plotter.NewLabels(set.labels)
		if err != nil {
			return fmt.Errorf("callouts: %w", err)
		}
		for i := range lb.TextStyle {
			lb.TextStyle[i].Color = set.col
		}
		lb.Offset = vg.Point{X: vg.Points(15 * 0.75)}
		pl.Add(lb)
	}
	return nil
}
