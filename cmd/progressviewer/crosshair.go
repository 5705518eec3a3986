package main

import (
	"image/color"
	"strings"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/abhineetsingh10/aml2practice/cmd/progressviewer/uihelpers"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
)

// crosshairLabel returns the readout for the week nearest to image x and the
// x pixel of that week, so the vertical line snaps to data.
func crosshairLabel(f chartgeom.Frame, imgX float64) ([]string, float64, bool) {
	rec, ok := f.NearestRecord(imgX)
	if !ok {
		return nil, 0, false
	}
	lines := []string{
		"Week of " + rec.Week.Format(chartgeom.CalloutDate),
		"Actual: " + chartgeom.FormatCount(rec.CumulativeActual),
		"Classroom: " + chartgeom.FormatCount(rec.ClassroomBenchmark),
		"This week: " + chartgeom.FormatCount(rec.WeeklyDelta),
	}
	if !rec.Active() {
		lines = append(lines, "(inactive)")
	}
	return lines, f.X.Map(rec.Week), true
}

// crosshairOverlay draws a crosshair on top of the chart image when enabled
// and shows the values of the nearest week.
type crosshairOverlay struct {
	widget.BaseWidget
	state    *uiState
	enabled  bool
	mouse    fyne.Position
	hovering bool
}

func newCrosshairOverlay(state *uiState) *crosshairOverlay {
	c := &crosshairOverlay{state: state, enabled: state != nil && state.crosshairEnabled}
	c.ExtendBaseWidget(c)
	return c
}

func (c *crosshairOverlay) CreateRenderer() fyne.WidgetRenderer {
	// transparent background for a full hover hit-area
	bg := canvas.NewRectangle(color.RGBA{R: 0, G: 0, B: 0, A: 0})
	lineV := canvas.NewLine(color.RGBA{R: 200, G: 200, B: 200, A: 220})
	lineV.StrokeWidth = 1
	lineH := canvas.NewLine(color.RGBA{R: 200, G: 200, B: 200, A: 220})
	lineH.StrokeWidth = 1
	dot := canvas.NewCircle(color.RGBA{R: 240, G: 240, B: 240, A: 220})
	label := widget.NewRichText()
	label.Wrapping = fyne.TextWrapOff
	labelBG := canvas.NewRectangle(color.RGBA{R: 0, G: 0, B: 0, A: 170})
	objs := []fyne.CanvasObject{bg, lineV, lineH, dot, labelBG, label}
	return &crosshairRenderer{c: c, bg: bg, lineV: lineV, lineH: lineH, dot: dot, labelBG: labelBG, label: label, objs: objs}
}

type crosshairRenderer struct {
	c       *crosshairOverlay
	bg      *canvas.Rectangle
	lineV   *canvas.Line
	lineH   *canvas.Line
	dot     *canvas.Circle
	labelBG *canvas.Rectangle
	label   *widget.RichText
	objs    []fyne.CanvasObject
}

func (r *crosshairRenderer) hide() {
	off := fyne.NewPos(-10, -10)
	r.lineV.Position1, r.lineV.Position2 = off, off
	r.lineH.Position1, r.lineH.Position2 = off, off
	r.dot.Move(off)
	r.labelBG.Resize(fyne.NewSize(0, 0))
	r.labelBG.Move(fyne.NewPos(-1000, -1000))
	r.label.Move(fyne.NewPos(-1000, -1000))
}

func (r *crosshairRenderer) Destroy() {}

func (r *crosshairRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	st := r.c.state
	if !r.c.enabled || !r.c.hovering || st == nil || st.img == nil || st.img.Image == nil {
		r.hide()
		return
	}
	b := st.img.Image.Bounds()
	rect := uihelpers.ComputeContainRect(float32(b.Dx()), float32(b.Dy()), size.Width, size.Height)
	x, y := r.c.mouse.X, r.c.mouse.Y
	imgX, _, inside := rect.ViewToImage(x, y)
	if !inside {
		r.hide()
		return
	}
	lines, lineX, ok := crosshairLabel(st.frame, imgX)
	if !ok {
		r.hide()
		return
	}
	vx, _ := rect.ImageToView(lineX, 0)
	r.lineV.Position1 = fyne.NewPos(vx, rect.Y)
	r.lineV.Position2 = fyne.NewPos(vx, rect.Y+rect.H)
	r.lineH.Position1 = fyne.NewPos(rect.X, y)
	r.lineH.Position2 = fyne.NewPos(rect.X+rect.W, y)
	r.dot.Resize(fyne.NewSize(6, 6))
	r.dot.Move(fyne.NewPos(vx-3, y-3))

	r.label.Segments = []widget.RichTextSegment{&widget.TextSegment{Text: strings.Join(lines, "\n")}}
	r.label.Refresh()
	pad := float32(6)
	ts := r.label.MinSize()
	bgW, bgH := ts.Width+2*pad, ts.Height+2*pad
	tx, ty := vx+8, y+8
	if tx+bgW > size.Width {
		tx = vx - 8 - bgW
	}
	if ty+bgH > size.Height {
		ty = size.Height - bgH
	}
	r.labelBG.Resize(fyne.NewSize(bgW, bgH))
	r.labelBG.Move(fyne.NewPos(tx, ty))
	r.label.Move(fyne.NewPos(tx+pad, ty+pad))
}

func (r *crosshairRenderer) MinSize() fyne.Size           { return fyne.NewSize(10, 10) }
func (r *crosshairRenderer) Objects() []fyne.CanvasObject { return r.objs }

func (r *crosshairRenderer) Refresh() {
	r.Layout(r.c.Size())
	r.lineV.StrokeColor = theme.Color(theme.ColorNameDisabled)
	r.lineH.StrokeColor = theme.Color(theme.ColorNameDisabled)
	r.bg.Refresh()
	r.lineV.Refresh()
	r.lineH.Refresh()
	r.dot.Refresh()
	r.labelBG.Refresh()
	r.label.Refresh()
}

func (c *crosshairOverlay) MouseMoved(ev *desktop.MouseEvent) {
	if !c.enabled {
		return
	}
	c.hovering = true
	c.mouse = ev.Position
	c.Refresh()
}
func (c *crosshairOverlay) MouseIn(ev *desktop.MouseEvent) { c.hovering = true; c.Refresh() }
func (c *crosshairOverlay) MouseOut()                      { c.hovering = false; c.Refresh() }

var _ desktop.Hoverable = (*crosshairOverlay)(nil)
