package detector

import (
	"image"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
)

// textMask returns a keep-mask for a w×h page: false wherever a padded text
// box lies. The padded rectangles are returned for later edge suppression.
func textMask(w, h int, boxes []document.TextBox, padding int) ([]bool, []image.Rectangle) {
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	bounds := image.Rect(0, 0, w, h)
	padded := make([]image.Rectangle, 0, len(boxes))
	for _, tb := range boxes {
		r := utils.PadRect(tb.Rect, padding, bounds)
		if r.Empty() {
			continue
		}
		padded = append(padded, r)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := mask[y*w : (y+1)*w]
			for x := r.Min.X; x < r.Max.X; x++ {
				row[x] = false
			}
		}
	}
	return mask, padded
}

// applyMask zeroes grayscale pixels outside the keep-mask in place.
func applyMask(gray *image.Gray, mask []bool) {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := range w {
			if !mask[y*w+x] {
				row[x] = 0
			}
		}
	}
}

// suppressEdges clears edge pixels inside each rectangle grown by halo.
// The black fill of the mask creates a strong step edge on its own border;
// those edges must not seed contours.
func suppressEdges(edges []bool, w, h int, rects []image.Rectangle, halo int) {
	bounds := image.Rect(0, 0, w, h)
	for _, r := range rects {
		r = utils.PadRect(r, halo, bounds)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := edges[y*w : (y+1)*w]
			for x := r.Min.X; x < r.Max.X; x++ {
				row[x] = false
			}
		}
	}
}
