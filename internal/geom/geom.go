// Package geom maps rectangles between a page's native coordinate space and
// the rendered viewport. Segment geometry is measured against the page's
// intrinsic dimensions; the viewport is that page scaled by the current zoom.
package geom

// Size represents the dimensions of a page or rendered surface
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect represents a rectangle with a top-left origin
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToViewport converts a native-space rectangle to viewport pixels. The X and
// Y axes scale independently; normal operation keeps the factors equal, but
// callers may render non-uniformly and the mapping must not assume otherwise.
func ToViewport(r Rect, native, viewport Size) Rect {
	if native.Width == 0 || native.Height == 0 {
		return Rect{}
	}
	sx := viewport.Width / native.Width
	sy := viewport.Height / native.Height
	return Rect{
		Top:    r.Top * sy,
		Left:   r.Left * sx,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}

// ToNative is the inverse of ToViewport.
func ToNative(r Rect, native, viewport Size) Rect {
	if viewport.Width == 0 || viewport.Height == 0 {
		return Rect{}
	}
	sx := native.Width / viewport.Width
	sy := native.Height / viewport.Height
	return Rect{
		Top:    r.Top * sy,
		Left:   r.Left * sx,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}

// Scaled returns the size multiplied by a uniform scale factor.
func (s Size) Scaled(scale float64) Size {
	return Size{Width: s.Width * scale, Height: s.Height * scale}
}

// Contains reports whether r lies entirely within a page of the given size.
func (s Size) Contains(r Rect) bool {
	return r.Left >= 0 && r.Top >= 0 &&
		r.Left+r.Width <= s.Width &&
		r.Top+r.Height <= s.Height
}

// ContainsPoint reports whether the point (x, y) falls inside the rectangle.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width &&
		y >= r.Top && y <= r.Top+r.Height
}
