package chartgeom

import (
	"math"
	"time"
)

// Polyline is an ordered run of points joined by straight segments.
type Polyline struct {
	Points []Point `json:"points"`
}

// Length is the total pixel arc length.
func (p Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		total += segLen(p.Points[i-1], p.Points[i])
	}
	return total
}

// Drawable reports whether there is at least one segment to stroke.
func (p Polyline) Drawable() bool { return len(p.Points) >= 2 }

// Reveal returns the leading part of the line covering fraction of its arc
// length. The cut point is interpolated in pixel and data space.
func (p Polyline) Reveal(fraction float64) Polyline {
	if fraction >= 1 || len(p.Points) < 2 {
		return p
	}
	if fraction <= 0 || math.IsNaN(fraction) {
		return Polyline{Points: []Point{p.Points[0]}}
	}
	target := fraction * p.Length()
	out := Polyline{Points: []Point{p.Points[0]}}
	done := 0.0
	for i := 1; i < len(p.Points); i++ {
		a, b := p.Points[i-1], p.Points[i]
		seg := segLen(a, b)
		if done+seg >= target {
			if seg > 0 {
				out.Points = append(out.Points, lerp(a, b, (target-done)/seg))
			}
			return out
		}
		out.Points = append(out.Points, b)
		done += seg
	}
	return out
}

func segLen(a, b Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

func lerp(a, b Point, t float64) Point {
	return Point{
		X:     a.X + t*(b.X-a.X),
		Y:     a.Y + t*(b.Y-a.Y),
		Week:  a.Week.Add(time.Duration(t * float64(b.Week.Sub(a.Week)))),
		Value: a.Value + t*(b.Value-a.Value),
	}
}
