package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
)

// DetectionResultJSON is a serializable representation of detected regions.
type DetectionResultJSON struct {
	Page    int          `json:"page,omitempty"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Regions []RegionJSON `json:"regions"`
}

type RegionJSON struct {
	Rank       int     `json:"rank"`
	Confidence float64 `json:"confidence"`
	Box        BoxJSON `json:"box"`
}

type BoxJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// RegionsToJSON converts regions to JSON with the given image dimensions.
func RegionsToJSON(regs []document.CandidateRegion, width, height int) ([]byte, error) {
	out := DetectionResultJSON{Width: width, Height: height}
	out.Regions = make([]RegionJSON, 0, len(regs))
	for _, r := range regs {
		if out.Page == 0 {
			out.Page = r.Page
		}
		out.Regions = append(out.Regions, RegionJSON{
			Rank:       r.Rank,
			Confidence: r.Confidence,
			Box: BoxJSON{
				X: r.Rect.Min.X,
				Y: r.Rect.Min.Y,
				W: r.Rect.Dx(),
				H: r.Rect.Dy(),
			},
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// RegionsFromJSON parses regions JSON back into candidate regions.
func RegionsFromJSON(data []byte) (DetectionResultJSON, []document.CandidateRegion, error) {
	var res DetectionResultJSON
	if err := json.Unmarshal(data, &res); err != nil {
		return res, nil, err
	}
	regs := make([]document.CandidateRegion, 0, len(res.Regions))
	for _, r := range res.Regions {
		regs = append(regs, document.CandidateRegion{
			Rect:       image.Rect(r.Box.X, r.Box.Y, r.Box.X+r.Box.W, r.Box.Y+r.Box.H),
			Page:       res.Page,
			Confidence: r.Confidence,
			Rank:       r.Rank,
		})
	}
	return res, regs, nil
}

// ValidateRegions performs basic sanity checks against image dimensions.
func ValidateRegions(regs []document.CandidateRegion, width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("invalid image dimensions for validation")
	}
	bounds := image.Rect(0, 0, width, height)
	for i, r := range regs {
		if r.Rect.Empty() {
			return fmt.Errorf("region %d has non-positive box size", i)
		}
		if !r.Rect.In(bounds) {
			return fmt.Errorf("region %d box out of bounds", i)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("region %d confidence %.3f outside [0,1]", i, r.Confidence)
		}
	}
	return nil
}

// VisualizeOptions controls how regions and text boxes are drawn onto images.
type VisualizeOptions struct {
	Color     color.Color
	TextColor color.Color
	Thickness int
	// TextBoxes are drawn in TextColor when set, to show what was suppressed.
	TextBoxes []document.TextBox
}

// VisualizeRegions draws regions onto a copy of img and returns an RGBA image.
func VisualizeRegions(img image.Image, regs []document.CandidateRegion, opt VisualizeOptions) *image.RGBA {
	if opt.Color == nil {
		opt.Color = color.RGBA{255, 0, 0, 255}
	}
	if opt.TextColor == nil {
		opt.TextColor = color.RGBA{0, 0, 255, 255}
	}
	if opt.Thickness <= 0 {
		opt.Thickness = 2
	}
	dst := utils.CloneRGBA(img)
	for _, tb := range opt.TextBoxes {
		utils.DrawRect(dst, tb.Rect, opt.TextColor, 1)
	}
	for _, r := range regs {
		utils.DrawRect(dst, r.Rect, opt.Color, opt.Thickness)
	}
	return dst
}
