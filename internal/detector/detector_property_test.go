package detector

import (
	"image"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/testutil"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDetectInvariantsProperty places one picture and one text-covered block
// on a page and checks the output contract.
func TestDetectInvariantsProperty(t *testing.T) {
	d, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	pad := d.GetConfig().TextPadding

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("regions are capped, sorted, above threshold and avoid text", prop.ForAll(
		func(px, py, pw, ph, tx, tw int) bool {
			pic := image.Rect(px, py, px+pw, py+ph)
			block := image.Rect(tx, 20, tx+tw, 200)
			cfg := testutil.PageConfig{
				Size:     testutil.ImageSize{Width: 520, Height: 260},
				Pictures: []image.Rectangle{pic, block},
			}
			img, _ := testutil.GeneratePage(cfg)
			boxes := []document.TextBox{{Rect: block, Confidence: 90}}

			regions := d.Detect(img, boxes)
			if len(regions) > d.GetConfig().MaxRegions {
				return false
			}
			padded := utils.PadRect(block, pad, img.Bounds())
			for i, r := range regions {
				if r.Confidence < d.GetConfig().MinFillRatio || r.Confidence > 1 {
					return false
				}
				if i > 0 && r.Confidence > regions[i-1].Confidence {
					return false
				}
				if utils.OverlapDepth(r.Rect, padded) > pad {
					return false
				}
			}
			return len(regions) == 1 && pic.In(regions[0].Rect)
		},
		gen.IntRange(10, 40),
		gen.IntRange(10, 40),
		gen.IntRange(110, 180),
		gen.IntRange(110, 180),
		gen.IntRange(270, 300),
		gen.IntRange(110, 200),
	))

	properties.TestingRun(t)
}
