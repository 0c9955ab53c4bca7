package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
)

// TextLocator finds text glyph boxes on a rasterized page.
type TextLocator interface {
	LocateTextBoxes(img image.Image) ([]document.TextBox, error)
}

// ErrBelowThreshold is returned by Crop for regions the detector would reject.
var ErrBelowThreshold = errors.New("region below fill ratio threshold")

// Detector finds non-text regions on rasterized pages. It holds no state
// besides its configuration and is safe for concurrent use.
type Detector struct {
	config Config
}

// NewDetector creates a detector from a validated configuration.
func NewDetector(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	slog.Debug("Initializing region detector",
		"text_padding", config.TextPadding,
		"canny", fmt.Sprintf("%.0f/%.0f", config.CannyLow, config.CannyHigh),
		"min_size", config.MinSize,
		"min_fill_ratio", config.MinFillRatio,
		"max_regions", config.MaxRegions)
	return &Detector{config: config}, nil
}

// GetConfig returns the detector configuration.
func (d *Detector) GetConfig() Config {
	return d.config
}

// DetectPage locates text on the page and detects regions around it. A failing
// locator degrades to an empty text set instead of failing the page.
func (d *Detector) DetectPage(page *document.Page, locator TextLocator) []document.CandidateRegion {
	if page == nil || page.Pixels == nil {
		return nil
	}
	var boxes []document.TextBox
	if locator != nil {
		found, err := locator.LocateTextBoxes(page.Pixels)
		if err != nil {
			slog.Warn("Text location failed, detecting without text suppression",
				"page", page.Number, "error", err)
		} else {
			boxes = found
		}
	}
	regions := d.Detect(page.Pixels, boxes)
	for i := range regions {
		regions[i].Page = page.Number
	}
	slog.Debug("Page regions detected", "page", page.Number, "text_boxes", len(boxes), "regions", len(regions))
	return regions
}

// Detect returns candidate regions ordered by fill ratio, highest first, and
// capped at MaxRegions. Rectangles are in the coordinate space of img.
func (d *Detector) Detect(img image.Image, boxes []document.TextBox) []document.CandidateRegion {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	cfg := d.config

	// Text boxes come in image coordinates; everything below works from 0,0.
	local := make([]document.TextBox, len(boxes))
	for i, tb := range boxes {
		local[i] = tb
		local[i].Rect = tb.Rect.Sub(bounds.Min)
	}

	gray := utils.ToGray(img)
	keep, padded := textMask(w, h, local, cfg.TextPadding)
	applyMask(gray, keep)

	edges := cannyEdges(gray, cfg.CannyLow, cfg.CannyHigh)
	suppressEdges(edges, w, h, padded, 1)
	closed := closeEdges(edges, w, h, cfg)

	comps, labels := connectedComponents(closed, w, h)
	regions := make([]document.CandidateRegion, 0, len(comps))
	for i, st := range comps {
		if !st.external {
			continue
		}
		rect := image.Rect(st.minX, st.minY, st.maxX+1, st.maxY+1)
		if !d.acceptsShape(rect) {
			continue
		}
		contour := traceContourMoore(labels, w, h, i+1, st)
		fill := fillRatio(contour, rect)
		if fill < cfg.MinFillRatio {
			continue
		}
		regions = append(regions, document.CandidateRegion{
			Rect:       rect.Add(bounds.Min),
			Confidence: fill,
		})
	}

	sortRegions(regions)
	if len(regions) > cfg.MaxRegions {
		regions = regions[:cfg.MaxRegions]
	}
	for i := range regions {
		regions[i].Rank = i + 1
	}
	return regions
}

// acceptsShape applies the size and aspect ratio filters.
func (d *Detector) acceptsShape(r image.Rectangle) bool {
	w, h := r.Dx(), r.Dy()
	if w < d.config.MinSize || h < d.config.MinSize {
		return false
	}
	return utils.AspectRatio(w, h) <= d.config.MaxAspectRatio
}

// fillRatio is the contour polygon area over the bounding box area.
func fillRatio(contour []utils.Point, rect image.Rectangle) float64 {
	area := float64(rect.Dx() * rect.Dy())
	if area == 0 || len(contour) < 3 {
		return 0
	}
	return utils.Clamp01(utils.PolygonArea(contour) / area)
}

// sortRegions orders by confidence descending; ties keep top-to-bottom,
// left-to-right order so the output is deterministic.
func sortRegions(regions []document.CandidateRegion) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Rect.Min.Y != b.Rect.Min.Y {
			return a.Rect.Min.Y < b.Rect.Min.Y
		}
		return a.Rect.Min.X < b.Rect.Min.X
	})
}

// Crop cuts a candidate region out of the page. Regions the detector would
// have rejected never yield a stored image.
func (d *Detector) Crop(page *document.Page, region document.CandidateRegion) (document.StoredImage, error) {
	if region.Confidence < d.config.MinFillRatio {
		return document.StoredImage{}, fmt.Errorf("%w: %.3f < %.3f",
			ErrBelowThreshold, region.Confidence, d.config.MinFillRatio)
	}
	if page == nil || page.Pixels == nil {
		return document.StoredImage{}, errors.New("page has no pixels")
	}
	rect := region.Rect.Intersect(page.Pixels.Bounds())
	if rect.Empty() {
		return document.StoredImage{}, fmt.Errorf("region %v outside page bounds", region.Rect)
	}
	crop := utils.CropImageRect(page.Pixels, rect)
	return document.StoredImage{
		Rect:   rect,
		Pixels: crop,
		Hash:   utils.ContentHash(crop),
	}, nil
}
