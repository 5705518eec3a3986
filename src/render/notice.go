package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Notice writes a blank chart-sized image carrying a single centred message,
// used for subjects without data and for failed loads. PDF is not supported.
func Notice(w io.Writer, width, height int, msg string, format Format, p Palette) error {
	newRenderer, err := provider(format)
	if err != nil {
		return err
	}
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
	c := &Canvas{Palette: p}
	c.fillRect(r, 0, 0, float64(width), float64(height), p.Background)
	r.SetFontColor(p.Text)
	r.SetFontSize(valueFontSize)
	tw := r.MeasureText(msg).Width()
	r.Text(msg, (width-tw)/2, height/2)
	return r.Save(w)
}

// Blank returns a solid image in the palette background.
func Blank(w, h int, p Palette) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.Background), image.Point{}, draw.Src)
	return img
}

// DrawHint stamps a small hint string near the bottom-left of img.
func DrawHint(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	pad := 6
	face := basicfont.Face7x13
	textCol := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	shadowCol := image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 180})
	dr := &font.Drawer{Dst: rgba, Src: textCol, Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6
	bg := image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 200})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	drShadow := &font.Drawer{Dst: rgba, Src: shadowCol, Face: face, Dot: fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + 1)}}
	drShadow.DrawString(text)
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
	return rgba
}
