package detector

import (
	"testing"

	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledBlock(w, h int, r [4]int) ([]int, compStats) {
	labels := make([]int, w*h)
	st := compStats{minX: r[0], minY: r[1], maxX: r[2], maxY: r[3], external: true}
	for y := r[1]; y <= r[3]; y++ {
		for x := r[0]; x <= r[2]; x++ {
			labels[y*w+x] = 1
			st.count++
		}
	}
	return labels, st
}

func TestTraceContourRectangleCorners(t *testing.T) {
	labels, st := labeledBlock(10, 8, [4]int{2, 3, 6, 5})
	pts := traceContourMoore(labels, 10, 8, 1, st)
	assert.Equal(t, []utils.Point{{X: 2, Y: 3}, {X: 6, Y: 3}, {X: 6, Y: 5}, {X: 2, Y: 5}}, pts)
	assert.InDelta(t, 8.0, utils.PolygonArea(pts), 1e-9)
}

func TestTraceContourDegenerate(t *testing.T) {
	labels, st := labeledBlock(5, 5, [4]int{2, 2, 2, 2})
	pts := traceContourMoore(labels, 5, 5, 1, st)
	assert.Len(t, pts, 1)

	labels, st = labeledBlock(5, 5, [4]int{1, 2, 2, 2})
	pts = traceContourMoore(labels, 5, 5, 1, st)
	assert.InDelta(t, 0.0, utils.PolygonArea(pts), 1e-9)

	assert.Nil(t, traceContourMoore(labels, 5, 5, 0, st))
	assert.Nil(t, traceContourMoore(labels, 4, 4, 1, st))
}

func TestTraceContourFollowsOuterBoundaryOfRing(t *testing.T) {
	mask, w, h := maskFromRows(
		"..........",
		".########.",
		".#......#.",
		".#......#.",
		".########.",
		"..........",
	)
	comps, labels := connectedComponents(mask, w, h)
	require.Len(t, comps, 1)
	pts := traceContourMoore(labels, w, h, 1, comps[0])
	assert.InDelta(t, 21.0, utils.PolygonArea(pts), 1e-9)
	assert.InDelta(t, 21.0/32.0, fillRatio(pts, utils.BoundingRect(pts)), 1e-9)
}

func TestTraceContourSolidRectangleProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("solid rectangle contour encloses (w-1)(h-1)", prop.ForAll(
		func(x0, y0, bw, bh int) bool {
			w, h := 60, 60
			labels, st := labeledBlock(w, h, [4]int{x0, y0, x0 + bw - 1, y0 + bh - 1})
			pts := traceContourMoore(labels, w, h, 1, st)
			if len(pts) != 4 {
				return false
			}
			if utils.PolygonArea(pts) != float64((bw-1)*(bh-1)) {
				return false
			}
			r := utils.BoundingRect(pts)
			return r.Dx() == bw && r.Dy() == bh
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
		gen.IntRange(2, 40),
		gen.IntRange(2, 40),
	))

	properties.TestingRun(t)
}
