package utils

import (
	"image"
)

// Point is a pixel coordinate used by contour tracing.
type Point struct {
	X int
	Y int
}

// PadRect grows r by pad on every side and clamps it to bounds.
func PadRect(r image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad).Intersect(bounds)
}

// AspectRatio returns longer side / shorter side, or 0 for a degenerate size.
func AspectRatio(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	if w >= h {
		return float64(w) / float64(h)
	}
	return float64(h) / float64(w)
}

// OverlapDepth reports how far a reaches into b along the shallower axis.
// Zero means the rectangles do not intersect.
func OverlapDepth(a, b image.Rectangle) int {
	in := a.Intersect(b)
	if in.Empty() {
		return 0
	}
	if in.Dx() < in.Dy() {
		return in.Dx()
	}
	return in.Dy()
}

// PolygonArea returns the absolute shoelace area of a closed polygon.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return float64(sum) / 2
}

// BoundingRect returns the pixel-edge aligned rectangle enclosing pts.
func BoundingRect(pts []Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
