// Package uihelpers holds the viewer's pure sizing and hit-testing rules so
// they can be tested without a display.
package uihelpers

import (
	"path/filepath"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
)

// ToolbarHeight is reserved above the chart for the control bar.
const ToolbarHeight = 48

// ComputeViewport turns the window canvas size into the viewport the chart
// layout is computed from. The toolbar is excluded; the layout engine applies
// its own minimum clamp.
func ComputeViewport(canvasW, canvasH float32) chartgeom.Viewport {
	w := int(canvasW)
	h := int(canvasH) - ToolbarHeight
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return chartgeom.Viewport{Width: w, Height: h}
}

// ContainRect is where an image drawn with ImageFillContain lands inside a view.
type ContainRect struct {
	X, Y, W, H float32
	Scale      float32
}

// ComputeContainRect fits an imgW x imgH image into viewW x viewH keeping the
// aspect ratio, centred.
func ComputeContainRect(imgW, imgH, viewW, viewH float32) ContainRect {
	if imgW <= 0 || imgH <= 0 {
		return ContainRect{W: viewW, H: viewH, Scale: 1}
	}
	sx, sy := viewW/imgW, viewH/imgH
	scale := sx
	if sy < sx {
		scale = sy
	}
	w, h := imgW*scale, imgH*scale
	return ContainRect{X: (viewW - w) / 2, Y: (viewH - h) / 2, W: w, H: h, Scale: scale}
}

// ViewToImage maps a point in view coordinates to image pixels. inside is
// false when the point falls in the letterbox around the image.
func (r ContainRect) ViewToImage(x, y float32) (ix, iy float64, inside bool) {
	if r.Scale <= 0 {
		return 0, 0, false
	}
	inside = x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
	return float64((x - r.X) / r.Scale), float64((y - r.Y) / r.Scale), inside
}

// ImageToView is the inverse of ViewToImage.
func (r ContainRect) ImageToView(ix, iy float64) (x, y float32) {
	return r.X + float32(ix)*r.Scale, r.Y + float32(iy)*r.Scale
}

// FrameInterval throttles animation re-renders.
const FrameInterval = 33 * time.Millisecond

// ShouldRenderTick reports whether an animation tick at now should produce a
// new raster. The final tick always renders.
func ShouldRenderTick(last, now time.Time, done bool) bool {
	return done || last.IsZero() || now.Sub(last) >= FrameInterval
}

// TruncatePath shortens p to about n characters, keeping the file name.
func TruncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if left <= 0 {
		return "..." + base
	}
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}
