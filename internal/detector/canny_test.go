package detector

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepImage(w, h, split int, vertical bool) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			pos := x
			if !vertical {
				pos = y
			}
			if pos >= split {
				g.Pix[y*g.Stride+x] = 255
			}
		}
	}
	return g
}

func TestCannyUniformImageHasNoEdges(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range g.Pix {
		g.Pix[i] = 128
	}
	edges := cannyEdges(g, 50, 150)
	require.Len(t, edges, 16*16)
	assert.Equal(t, 0, countSet(edges))
}

func TestCannyStepEdgeIsOnePixelWide(t *testing.T) {
	w, h := 20, 12
	edges := cannyEdges(stepImage(w, h, 10, true), 50, 150)
	assert.Equal(t, h, countSet(edges))
	for y := range h {
		assert.True(t, edges[y*w+9], "row %d", y)
	}

	edges = cannyEdges(stepImage(w, h, 6, false), 50, 150)
	assert.Equal(t, w, countSet(edges))
	for x := range w {
		assert.True(t, edges[5*w+x], "col %d", x)
	}
}

func TestCannyThresholds(t *testing.T) {
	// A step of 30 gives an L1 gradient of 120: weak without a strong seed.
	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := range 10 {
		for x := 5; x < 10; x++ {
			g.Pix[y*g.Stride+x] = 30
		}
	}
	assert.Equal(t, 0, countSet(cannyEdges(g, 50, 150)))
	assert.Equal(t, 10, countSet(cannyEdges(g, 50, 100)))
}

func TestCannyEmptyImage(t *testing.T) {
	assert.Nil(t, cannyEdges(image.NewGray(image.Rect(0, 0, 0, 0)), 50, 150))
}

func TestHysteresisLinksWeakToStrong(t *testing.T) {
	mag := []float32{
		200, 80, 80, 0, 80,
	}
	edges := hysteresis(mag, 5, 1, 50, 150)
	assert.Equal(t, []bool{true, true, true, false, false}, edges)
}
