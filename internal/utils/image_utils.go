package utils

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// CropImageRect crops an image to the given rectangle.
func CropImageRect(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return imaging.New(0, 0, color.Transparent)
	}
	return imaging.Crop(img, rect)
}

// ToGray converts img into a fresh 8-bit grayscale buffer with origin (0,0).
// The result never aliases img, so callers may modify it.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// ContentHash returns the short md5 fingerprint of the image's RGBA pixels.
func ContentHash(img image.Image) string {
	nrgba := imaging.Clone(img)
	sum := md5.Sum(nrgba.Pix) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:8]
}

// BytesHash returns the short md5 fingerprint of raw bytes.
func BytesHash(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:8]
}

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// CloneRGBA copies img into a fresh RGBA canvas for drawing overlays.
func CloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// ParseHexColor parses "#RRGGBB" into a color, falling back to red.
func ParseHexColor(s string) color.RGBA {
	c := color.RGBA{R: 255, A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	v, err := hex.DecodeString(s[1:])
	if err != nil || len(v) != 3 {
		return c
	}
	return color.RGBA{R: v[0], G: v[1], B: v[2], A: 255}
}

// Clamp01 bounds v to [0,1], mapping NaN to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
