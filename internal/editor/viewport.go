package editor

import (
	"image"

	"github.com/example/notedis/internal/annotate"
)

// Viewport maps between display coordinates, where pointer events arrive,
// and surface coordinates, where records live.
type Viewport struct {
	// Surface is the backing resolution of the captured image.
	Surface image.Point
	// Display is where the surface is shown, including its screen offset.
	Display annotate.Rect
}

// NewViewport shows surface at display.
func NewViewport(surface image.Point, display annotate.Rect) Viewport {
	return Viewport{Surface: surface, Display: display}
}

// Scale returns the surface units per display unit on each axis.
func (v Viewport) Scale() (float64, float64) {
	sx, sy := 1.0, 1.0
	if v.Display.Width > 0 {
		sx = float64(v.Surface.X) / v.Display.Width
	}
	if v.Display.Height > 0 {
		sy = float64(v.Surface.Y) / v.Display.Height
	}
	return sx, sy
}

// ToSurface converts a display point.
func (v Viewport) ToSurface(p annotate.Point) annotate.Point {
	sx, sy := v.Scale()
	return annotate.Point{X: (p.X - v.Display.X) * sx, Y: (p.Y - v.Display.Y) * sy}
}

// ToDisplay is the inverse of ToSurface.
func (v Viewport) ToDisplay(p annotate.Point) annotate.Point {
	sx, sy := v.Scale()
	return annotate.Point{X: p.X/sx + v.Display.X, Y: p.Y/sy + v.Display.Y}
}

// RectToDisplay converts a surface rect.
func (v Viewport) RectToDisplay(r annotate.Rect) annotate.Rect {
	sx, sy := v.Scale()
	o := v.ToDisplay(annotate.Point{X: r.X, Y: r.Y})
	return annotate.Rect{X: o.X, Y: o.Y, Width: r.Width / sx, Height: r.Height / sy}
}

// FitDisplay centres surface inside area at the largest scale that fits,
// never enlarging past native size.
func FitDisplay(surface image.Point, area image.Rectangle) annotate.Rect {
	if surface.X <= 0 || surface.Y <= 0 || area.Empty() {
		return annotate.Rect{X: float64(area.Min.X), Y: float64(area.Min.Y), Width: float64(surface.X), Height: float64(surface.Y)}
	}
	zx := float64(area.Dx()) / float64(surface.X)
	zy := float64(area.Dy()) / float64(surface.Y)
	zoom := zx
	if zy < zoom {
		zoom = zy
	}
	if zoom > 1 {
		zoom = 1
	}
	w := float64(surface.X) * zoom
	h := float64(surface.Y) * zoom
	return annotate.Rect{
		X:      float64(area.Min.X) + (float64(area.Dx())-w)/2,
		Y:      float64(area.Min.Y) + (float64(area.Dy())-h)/2,
		Width:  w,
		Height: h,
	}
}
