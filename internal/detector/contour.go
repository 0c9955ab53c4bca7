package detector

import "github.com/MeKo-Tech/vistext/internal/utils"

// 8-neighbourhood in clockwise order (image y grows downwards): E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// traceContourMoore returns the outer boundary of the labeled component as
// pixel coordinates, using Moore-neighbour tracing with Jacob's stopping
// criterion. Collinear runs are collapsed to their end points.
func traceContourMoore(labels []int, w, h, label int, st compStats) []utils.Point {
	if label <= 0 || len(labels) != w*h {
		return nil
	}

	// The first pixel in raster order is on the outer boundary and its west
	// neighbour is background.
	sx, sy := -1, -1
	for y := st.minY; y <= st.maxY && sx < 0; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] == label {
				sx, sy = x, y
				break
			}
		}
	}
	if sx < 0 {
		return nil
	}

	pts := make([]utils.Point, 0, 64)
	addPoint := func(x, y int) {
		p := utils.Point{X: x, Y: y}
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1]
			}
		}
		if n := len(pts); n > 0 && pts[n-1] == p {
			return
		}
		pts = append(pts, p)
	}
	addPoint(sx, sy)

	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy
	startBx, startBy := bx, by
	firstX, firstY := -1, -1
	maxSteps := 4*(st.maxX-st.minX+1)*(st.maxY-st.minY+1) + 8

	for range maxSteps {
		nx, ny, nbx, nby, found := nextBoundaryPixel(isLabel, cx, cy, bx, by)
		if !found {
			break // isolated pixel
		}
		if firstX < 0 {
			firstX, firstY = nx, ny
		} else if cx == sx && cy == sy && nx == firstX && ny == firstY {
			break // about to repeat the first move
		}
		cx, cy, bx, by = nx, ny, nbx, nby
		addPoint(cx, cy)
		if cx == sx && cy == sy && bx == startBx && by == startBy {
			break // Jacob's criterion
		}
	}

	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}

// nextBoundaryPixel scans the Moore neighbourhood of (cx,cy) clockwise,
// starting just after the backtrack pixel (bx,by). It returns the next
// boundary pixel and the background pixel visited right before it.
func nextBoundaryPixel(isLabel func(x, y int) bool, cx, cy, bx, by int) (int, int, int, int, bool) {
	start := 0
	for i := range 8 {
		if mooreDX[i] == bx-cx && mooreDY[i] == by-cy {
			start = i
			break
		}
	}
	px, py := bx, by
	for k := 1; k <= 8; k++ {
		i := (start + k) % 8
		tx, ty := cx+mooreDX[i], cy+mooreDY[i]
		if isLabel(tx, ty) {
			return tx, ty, px, py, true
		}
		px, py = tx, ty
	}
	return 0, 0, bx, by, false
}
