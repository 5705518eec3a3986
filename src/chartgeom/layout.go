// Package chartgeom turns one subject's weekly series into pixel geometry.
// Everything here is pure: the same series, viewport and options always yield
// the same Frame, and drawing back ends only paint what a Frame describes.
package chartgeom

// Viewport is the host surface the chart is fitted to, in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LayoutRules size the chart relative to its viewport. Margins are fractions
// of the chart's own width (left, right) or height (top, bottom).
type LayoutRules struct {
	WidthFraction  float64 `json:"width_fraction" mapstructure:"width_fraction"`
	HeightFraction float64 `json:"height_fraction" mapstructure:"height_fraction"`
	Top            float64 `json:"top" mapstructure:"top"`
	Right          float64 `json:"right" mapstructure:"right"`
	Bottom         float64 `json:"bottom" mapstructure:"bottom"`
	Left           float64 `json:"left" mapstructure:"left"`
	MinWidth       int     `json:"min_width" mapstructure:"min_width"`
	MinHeight      int     `json:"min_height" mapstructure:"min_height"`
}

// DefaultLayoutRules fill 95% x 85% of the viewport and leave the right fifth
// free for callouts.
var DefaultLayoutRules = LayoutRules{
	WidthFraction:  0.95,
	HeightFraction: 0.85,
	Top:            0.20,
	Right:          0.20,
	Bottom:         0.18,
	Left:           0.10,
	MinWidth:       320,
	MinHeight:      240,
}

func (r LayoutRules) withDefaults() LayoutRules {
	d := DefaultLayoutRules
	pick := func(v, def float64) float64 {
		if v <= 0 || v >= 1 {
			return def
		}
		return v
	}
	r.WidthFraction = pickFull(r.WidthFraction, d.WidthFraction)
	r.HeightFraction = pickFull(r.HeightFraction, d.HeightFraction)
	r.Top = pick(r.Top, d.Top)
	r.Right = pick(r.Right, d.Right)
	r.Bottom = pick(r.Bottom, d.Bottom)
	r.Left = pick(r.Left, d.Left)
	if r.Left+r.Right >= 0.9 {
		r.Left, r.Right = d.Left, d.Right
	}
	if r.Top+r.Bottom >= 0.9 {
		r.Top, r.Bottom = d.Top, d.Bottom
	}
	if r.MinWidth <= 0 {
		r.MinWidth = d.MinWidth
	}
	if r.MinHeight <= 0 {
		r.MinHeight = d.MinHeight
	}
	return r
}

// pickFull accepts (0,1]; a chart may fill its viewport.
func pickFull(v, def float64) float64 {
	if v <= 0 || v > 1 {
		return def
	}
	return v
}

// Margin is the space around the plotting band, in pixels.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Layout is the pixel geometry of one chart.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// ComputeLayout applies rules to vp. Viewports smaller than the rule minimum
// are clamped up first so the plotting band never collapses.
func ComputeLayout(vp Viewport, rules LayoutRules) Layout {
	rules = rules.withDefaults()
	w, h := vp.Width, vp.Height
	if w < rules.MinWidth {
		w = rules.MinWidth
	}
	if h < rules.MinHeight {
		h = rules.MinHeight
	}
	fw := float64(w) * rules.WidthFraction
	fh := float64(h) * rules.HeightFraction
	return Layout{
		Width:  fw,
		Height: fh,
		Margin: Margin{
			Top:    fh * rules.Top,
			Right:  fw * rules.Right,
			Bottom: fh * rules.Bottom,
			Left:   fw * rules.Left,
		},
	}
}

// PixelSize is the raster size the layout needs.
func (l Layout) PixelSize() (int, int) {
	return int(l.Width + 0.5), int(l.Height + 0.5)
}

// XRange is the horizontal plotting band, left to right.
func (l Layout) XRange() [2]float64 {
	return [2]float64{l.Margin.Left, l.Width - l.Margin.Right}
}

// YRange is the vertical plotting band, bottom to top (pixel y grows downward).
func (l Layout) YRange() [2]float64 {
	return [2]float64{l.Height - l.Margin.Bottom, l.Margin.Top}
}
