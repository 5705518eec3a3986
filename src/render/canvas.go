package render

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
)

// Canvas paints a frame stroke by stroke on go-chart's raster or SVG renderer,
// so pixels land exactly where the frame put them.
type Canvas struct {
	Palette Palette
}

const (
	lineWidth     = 4.0
	tickLength    = 6
	tickFontSize  = 14.0
	valueFontSize = 16.0
	legendFont    = 16.0
	canvasDPI     = 72.0
)

func (c *Canvas) Name() string { return BackendCanvas }

func (c *Canvas) Supports(f Format) bool { return f == PNG || f == SVG }

func provider(f Format) (chart.RendererProvider, error) {
	switch f {
	case PNG:
		return chart.PNG, nil
	case SVG:
		return chart.SVG, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

func (c *Canvas) Render(w io.Writer, f chartgeom.Frame, format Format) error {
	newRenderer, err := provider(format)
	if err != nil {
		return err
	}
	width, height := f.Layout.PixelSize()
	r, err := newRenderer(width, height)
	if err != nil {
		return fmt.Errorf("create %s renderer: %w", format, err)
	}
	ttf, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetDPI(canvasDPI)
	r.SetFont(ttf)

	c.fillRect(r, 0, 0, float64(width), float64(height), c.Palette.Background)
	c.drawAxes(r, f)
	c.drawLegend(r, f.Legend)
	c.drawText(r, f.XTitle)
	c.drawText(r, f.YTitle)
	c.drawLine(r, f.Benchmark, c.Palette.Benchmark)
	c.drawLine(r, f.Actual, c.Palette.Actual)
	for _, m := range f.Markers {
		col := c.Palette.Role(m.Role)
		r.SetFillColor(col)
		r.SetStrokeColor(col)
		r.SetStrokeWidth(0)
		r.Circle(m.Radius, px(m.X), px(m.Y))
		r.FillStroke()
	}
	for _, t := range f.Callouts {
		c.drawText(r, t)
	}
	if f.Headline != nil {
		c.drawText(r, f.Headline.Text)
	}
	return r.Save(w)
}

func px(v float64) int { return int(math.Round(v)) }

func (c *Canvas) fillRect(r chart.Renderer, x, y, w, h float64, col drawing.Color) {
	r.SetFillColor(col)
	r.SetStrokeColor(col)
	r.SetStrokeWidth(0)
	r.MoveTo(px(x), px(y))
	r.LineTo(px(x+w), px(y))
	r.LineTo(px(x+w), px(y+h))
	r.LineTo(px(x), px(y+h))
	r.LineTo(px(x), px(y))
	r.Close()
	r.Fill()
}

func (c *Canvas) segment(r chart.Renderer, x1, y1, x2, y2 float64, col drawing.Color, width float64) {
	r.SetStrokeColor(col)
	r.SetStrokeWidth(width)
	r.MoveTo(px(x1), px(y1))
	r.LineTo(px(x2), px(y2))
	r.Stroke()
}

func (c *Canvas) drawLine(r chart.Renderer, p chartgeom.Polyline, col drawing.Color) {
	if !p.Drawable() {
		return
	}
	r.SetStrokeColor(col)
	r.SetStrokeWidth(lineWidth)
	r.MoveTo(px(p.Points[0].X), px(p.Points[0].Y))
	for _, pt := range p.Points[1:] {
		r.LineTo(px(pt.X), px(pt.Y))
	}
	r.Stroke()
}

func (c *Canvas) drawAxes(r chart.Renderer, f chartgeom.Frame) {
	xr, yr := f.Layout.XRange(), f.Layout.YRange()
	bottom, left := yr[0], xr[0]
	c.segment(r, xr[0], bottom, xr[1], bottom, c.Palette.Axis, 1)
	c.segment(r, left, yr[1], left, bottom, c.Palette.Axis, 1)

	rot := f.TickRotation * math.Pi / 180
	for _, t := range f.XTicks {
		c.segment(r, t.Pos, bottom, t.Pos, bottom+tickLength, c.Palette.Axis, 1)
		r.SetFontColor(c.Palette.Text)
		r.SetFontSize(tickFontSize)
		tw := float64(r.MeasureText(t.Label).Width())
		// anchor the end of the rotated label just below the tick
		x := t.Pos - tw*math.Cos(rot) - 4
		y := bottom + tickLength + 10 - tw*math.Sin(rot)
		r.SetTextRotation(rot)
		r.Text(t.Label, px(x), px(y))
		r.ClearTextRotation()
	}
	for _, t := range f.YTicks {
		c.segment(r, left-tickLength, t.Pos, left, t.Pos, c.Palette.Axis, 1)
		r.SetFontColor(c.Palette.Text)
		r.SetFontSize(valueFontSize)
		tw := float64(r.MeasureText(t.Label).Width())
		r.Text(t.Label, px(left-tickLength-4-tw), px(t.Pos+valueFontSize/3))
	}
}

func (c *Canvas) drawLegend(r chart.Renderer, l chartgeom.LegendBox) {
	c.fillRect(r, l.X, l.Y, l.Width, l.Height, c.Palette.LegendFill)
	for i, e := range l.Entries {
		y := l.Y + 35 + float64(i)*30
		c.segment(r, l.X+20, y, l.X+70, y, c.Palette.Role(e.Role), lineWidth)
		c.drawText(r, chartgeom.Text{Text: e.Text, X: l.X + 85, Y: y + 5, FontSize: legendFont, Bold: true, Role: chartgeom.RoleNeutral})
	}
}

// drawText honours the anchor and rotation of t. The default font has no bold
// face, so bold text is struck twice one pixel apart.
func (c *Canvas) drawText(r chart.Renderer, t chartgeom.Text) {
	if t.Text == "" {
		return
	}
	r.SetFontColor(c.Palette.Role(t.Role))
	r.SetFontSize(t.FontSize)
	tw := float64(r.MeasureText(t.Text).Width())
	x, y := t.X, t.Y
	rot := t.Rotation * math.Pi / 180
	if t.Anchor == "middle" {
		x -= tw / 2 * math.Cos(rot)
		y -= tw / 2 * math.Sin(rot)
	}
	if rot != 0 {
		r.SetTextRotation(rot)
		defer r.ClearTextRotation()
	}
	r.Text(t.Text, px(x), px(y))
	if t.Bold {
		r.Text(t.Text, px(x)+1, px(y))
	}
}
