package render

import (
	"fmt"
	"io"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
)

// Chart hands the frame's data to go-chart's Chart type and lets it lay out
// the axes and legend itself. Ticks and domains still come from the frame.
type Chart struct {
	Palette Palette
}

func (c *Chart) Name() string { return BackendChart }

func (c *Chart) Supports(f Format) bool { return f == PNG || f == SVG }

// lineStyle draws a solid line without dots.
func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeColor: col, StrokeWidth: lineWidth}
}

// pointStyle renders points only (no connecting line).
func pointStyle(col drawing.Color, radius float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    radius,
		DotColor:    col,
	}
}

func timeSeries(name string, p chartgeom.Polyline, st chart.Style) (chart.TimeSeries, bool) {
	if len(p.Points) == 0 {
		return chart.TimeSeries{}, false
	}
	ts := chart.TimeSeries{Name: name, Style: st}
	for _, pt := range p.Points {
		ts.XValues = append(ts.XValues, pt.Week)
		ts.YValues = append(ts.YValues, pt.Value)
	}
	return ts, true
}

func (c *Chart) Render(w io.Writer, f chartgeom.Frame, format Format) error {
	newRenderer, err := provider(format)
	if err != nil {
		return err
	}
	if f.Empty || len(f.Benchmark.Points) == 0 {
		return fmt.Errorf("%w: %s has no plottable weeks", ErrEmptyFrame, f.SubjectID)
	}
	width, height := f.Layout.PixelSize()

	var series []chart.Series
	if ts, ok := timeSeries(chartgeom.LegendBenchmark, f.Benchmark, lineStyle(c.Palette.Benchmark)); ok {
		series = append(series, ts)
	}
	if ts, ok := timeSeries(chartgeom.LegendActual, f.Actual, lineStyle(c.Palette.Actual)); ok {
		series = append(series, ts)
	}
	lines := len(series)
	// markers as dot-only series, one per role and radius
	for _, m := range f.Markers {
		series = append(series, chart.TimeSeries{
			XValues: []time.Time{m.Week},
			YValues: []float64{m.Value},
			Style:   pointStyle(c.Palette.Role(m.Role), m.Radius),
		})
	}
	if len(f.Callouts) > 0 {
		// callouts sit at pixel positions; map them back into data space
		ann := chart.AnnotationSeries{Style: chart.Style{FontSize: 10, StrokeColor: c.Palette.Axis}}
		for _, t := range f.Callouts {
			ann.Annotations = append(ann.Annotations, chart.Value2{
				XValue: chart.TimeToFloat64(f.X.Invert(t.X)), YValue: f.Y.Invert(t.Y), Label: t.Text,
			})
		}
		series = append(series, ann)
	}

	lo, hi := f.X.Domain[0], f.X.Domain[1]
	if !hi.After(lo) {
		lo, hi = lo.AddDate(0, 0, -3), hi.AddDate(0, 0, 3)
	}
	xTicks := make([]chart.Tick, 0, len(f.XTicks))
	for _, t := range f.XTicks {
		xTicks = append(xTicks, chart.Tick{Value: chart.TimeToFloat64(t.Time), Label: t.Label})
	}
	yMax := f.Y.Domain[1]
	if yMax <= 0 {
		yMax = 1
	}
	yTicks := make([]chart.Tick, 0, len(f.YTicks))
	for _, t := range f.YTicks {
		yTicks = append(yTicks, chart.Tick{Value: t.Value, Label: t.Label})
	}
	if len(yTicks) < 2 {
		yTicks = []chart.Tick{{Value: 0, Label: "0"}, {Value: yMax, Label: chartgeom.FormatCount(yMax)}}
	}

	title := ""
	if f.Headline != nil {
		title = f.Headline.Text.Text
	}
	ch := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: c.Palette.Actual, FontSize: 14},
		Width:      width,
		Height:     height,
		Background: chart.Style{
			FillColor: c.Palette.Background,
			Padding:   chart.Box{Top: int(f.Layout.Margin.Top), Left: 16, Right: int(f.Layout.Margin.Right), Bottom: 24},
		},
		Canvas: chart.Style{FillColor: c.Palette.Background},
		XAxis: chart.XAxis{
			Name:      f.XTitle.Text,
			NameStyle: chart.Style{FontColor: c.Palette.Text},
			Style:     chart.Style{FontColor: c.Palette.Text, StrokeColor: c.Palette.Axis, TextRotationDegrees: -f.TickRotation},
			Ticks:     xTicks,
			Range:     &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)},
		},
		YAxis: chart.YAxis{
			Name:      f.YTitle.Text,
			NameStyle: chart.Style{FontColor: c.Palette.Text},
			Style:     chart.Style{FontColor: c.Palette.Text, StrokeColor: c.Palette.Axis},
			Ticks:     yTicks,
			Range:     &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Series: series,
	}
	// the legend lists the two lines only, not the marker series
	legendSrc := ch
	legendSrc.Series = series[:lines]
	ch.Elements = []chart.Renderable{chart.Legend(&legendSrc, chart.Style{
		FillColor:   c.Palette.LegendFill,
		FontColor:   c.Palette.Text,
		StrokeColor: c.Palette.Axis,
	})}
	if err := ch.Render(newRenderer, w); err != nil {
		return fmt.Errorf("render chart for %s: %w", f.SubjectID, err)
	}
	return nil
}
