package pdf

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sort"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff"
)

// AssetExtractor pulls natively embedded images out of a PDF.
type AssetExtractor struct {
	// MinSide drops thumbnails and masks smaller than this on either side.
	MinSide int
	conf    *model.Configuration
}

// NewAssetExtractor returns an extractor using pdfcpu defaults. A non-nil
// creds is used to open encrypted files.
func NewAssetExtractor(creds *Credentials) *AssetExtractor {
	return &AssetExtractor{MinSide: 8, conf: creds.configuration()}
}

// Extract returns the decodable images on the given pages (all pages when
// pages is empty), ordered by page then by position in the page.
// Objects that cannot be decoded are logged and skipped.
func (e *AssetExtractor) Extract(path string, pages []int) ([]document.EmbeddedAsset, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller-provided document path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var assets []document.EmbeddedAsset
	perPage := make(map[int]int)
	digest := func(img model.Image, _ bool, _ int) error {
		if img.Reader == nil {
			return nil
		}
		decoded, format, err := image.Decode(img)
		if err != nil {
			slog.Warn("Skipping undecodable embedded image",
				"page", img.PageNr, "object", img.ObjNr, "type", img.FileType, "error", err)
			return nil
		}
		b := decoded.Bounds()
		if b.Dx() < e.MinSide || b.Dy() < e.MinSide {
			return nil
		}
		perPage[img.PageNr]++
		assets = append(assets, document.EmbeddedAsset{
			Page:         img.PageNr,
			Index:        perPage[img.PageNr],
			ObjectNumber: img.ObjNr,
			Name:         img.Name,
			Format:       format,
			Pixels:       decoded,
		})
		return nil
	}

	if err := api.ExtractImages(f, pageStrings(pages), digest, e.conf); err != nil {
		return nil, fmt.Errorf("extract images from %s: %w", path, err)
	}

	sort.SliceStable(assets, func(i, j int) bool { return assets[i].Page < assets[j].Page })
	slog.Debug("Extracted embedded images", "path", path, "count", len(assets))
	return assets, nil
}
