package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test page sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	PageSize   = ImageSize{800, 1000}
)

// PageConfig describes a synthetic scanned page.
type PageConfig struct {
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	// Lines are drawn top to bottom starting at TextOrigin.
	Lines       []string
	TextOrigin  image.Point
	LineSpacing int
	// Pictures are filled with a checker texture and a dark frame.
	Pictures []image.Rectangle
}

// DefaultPageConfig returns a page with a short paragraph and one picture.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:       PageSize,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
		Lines: []string{
			"1. The lesion shown in the image is most consistent with",
			"A. Psoriasis B. Eczema C. Melanoma D. Tinea",
			"Correct answer: C",
		},
		TextOrigin:  image.Pt(40, 60),
		LineSpacing: 20,
		Pictures:    []image.Rectangle{image.Rect(150, 300, 450, 550)},
	}
}

// GeneratePage renders a synthetic page and returns the text boxes of every
// drawn line, as an OCR engine would report them.
func GeneratePage(cfg PageConfig) (*image.RGBA, []document.TextBox) {
	if cfg.FontFace == nil {
		cfg.FontFace = basicfont.Face7x13
	}
	if cfg.Background == nil {
		cfg.Background = color.White
	}
	if cfg.Foreground == nil {
		cfg.Foreground = color.Black
	}
	if cfg.LineSpacing <= 0 {
		cfg.LineSpacing = 20
	}

	img := image.NewRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	for _, r := range cfg.Pictures {
		DrawPicture(img, r)
	}

	metrics := cfg.FontFace.Metrics()
	ascent, descent := metrics.Ascent.Ceil(), metrics.Descent.Ceil()
	drawer := &font.Drawer{Dst: img, Src: &image.Uniform{cfg.Foreground}, Face: cfg.FontFace}

	boxes := make([]document.TextBox, 0, len(cfg.Lines))
	for i, line := range cfg.Lines {
		baseline := cfg.TextOrigin.Y + i*cfg.LineSpacing + ascent
		drawer.Dot = fixed.P(cfg.TextOrigin.X, baseline)
		width := font.MeasureString(cfg.FontFace, line).Ceil()
		drawer.DrawString(line)
		boxes = append(boxes, document.TextBox{
			Rect:       image.Rect(cfg.TextOrigin.X, baseline-ascent, cfg.TextOrigin.X+width, baseline+descent),
			Confidence: 90,
			Text:       line,
		})
	}
	return img, boxes
}

// DrawPicture paints a textured block with a dark three pixel frame, which
// reads as a diagram to the region detector and as a photo to the scorer.
func DrawPicture(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	frame := color.RGBA{20, 20, 20, 255}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if x-r.Min.X < 3 || y-r.Min.Y < 3 || r.Max.X-x <= 3 || r.Max.Y-y <= 3 {
				img.SetRGBA(x, y, frame)
				continue
			}
			v := uint8(60)
			if ((x-r.Min.X)/8+(y-r.Min.Y)/8)%2 == 0 {
				v = 180
			}
			img.SetRGBA(x, y, color.RGBA{v, v / 2, 255 - v, 255})
		}
	}
}

// CreateTestImage creates a uniform image of the given size and color.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateNoiseImage creates a deterministic high-variance image.
func CreateNoiseImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := uint8((x*37 + y*91 + (x*y)%53) % 256) //nolint:gosec // G115: bounded by modulo
			img.SetRGBA(x, y, color.RGBA{v, 255 - v, v / 2, 255})
		}
	}
	return img
}

// SaveImage saves an image as PNG, creating parent directories.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	file, err := os.Create(path) //nolint:gosec // G304: test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()
	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}

// CompareImages reports whether the normalized mean pixel difference of two
// same-sized images is within tolerance.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b := img1.Bounds()
	if b.Size() != img2.Bounds().Size() {
		return false
	}
	o := img2.Bounds().Min.Sub(b.Min)

	var totalDiff, pixelCount float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x+o.X, y+o.Y).RGBA()
			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixelCount++
		}
	}
	if pixelCount == 0 {
		return true
	}
	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return totalDiff/pixelCount/maxDiff <= tolerance
}
