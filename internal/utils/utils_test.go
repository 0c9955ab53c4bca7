package utils

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	cases := []struct {
		path string
		ok   bool
	}{
		{"a.jpg", true},
		{"b.JPEG", true},
		{"c.png", true},
		{"d.bmp", true},
		{"e.tiff", true},
		{"f.gif", false},
		{"noext", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, IsSupportedImage(c.path), c.path)
	}
}

func TestSaveAndLoadPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 7))
	img.Set(3, 4, color.RGBA{R: 200, A: 255})
	path := filepath.Join(t.TempDir(), "nested", "out.png")

	require.NoError(t, SavePNG(path, img))
	loaded, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Bounds().Dx())
	assert.Equal(t, 7, loaded.Bounds().Dy())
	assert.Equal(t, ContentHash(img), ContentHash(loaded))
}

func TestLoadImageErrors(t *testing.T) {
	_, err := LoadImage("")
	require.Error(t, err)

	_, err = LoadImage("x.gif")
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)

	_, err = DecodeImage([]byte("not an image"))
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestPadRectClampsToBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	got := PadRect(image.Rect(2, 3, 20, 30), 5, bounds)
	assert.Equal(t, image.Rect(0, 0, 25, 35), got)
}

func TestAspectRatio(t *testing.T) {
	assert.InDelta(t, 2.0, AspectRatio(200, 100), 1e-9)
	assert.InDelta(t, 2.0, AspectRatio(100, 200), 1e-9)
	assert.Zero(t, AspectRatio(0, 10))
}

func TestPolygonAreaAndBoundingRect(t *testing.T) {
	square := []Point{{0, 0}, {9, 0}, {9, 9}, {0, 9}}
	assert.InDelta(t, 81.0, PolygonArea(square), 1e-9)
	assert.Equal(t, image.Rect(0, 0, 10, 10), BoundingRect(square))
	assert.Zero(t, PolygonArea(square[:2]))
}

func TestOverlapDepth(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	assert.Equal(t, 0, OverlapDepth(a, image.Rect(20, 20, 30, 30)))
	assert.Equal(t, 3, OverlapDepth(a, image.Rect(7, 0, 30, 10)))
}

func TestToGrayOffsetOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 15, 10))
	img.Set(5, 5, color.White)
	g := ToGray(img)
	assert.Equal(t, image.Rect(0, 0, 10, 5), g.Bounds())
	assert.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0, G: 255, B: 0, A: 255}, ParseHexColor("#00FF00"))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, ParseHexColor("bogus"))
}

func TestClamp01(t *testing.T) {
	assert.Zero(t, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(3))
	assert.Equal(t, 0.5, Clamp01(0.5))
}
