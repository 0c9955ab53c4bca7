package pdf

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the rendering resolution used for region detection.
const DefaultDPI = 200

// Rasterizer renders pages of one PDF with MuPDF.
type Rasterizer struct {
	doc  *fitz.Document
	path string
	dpi  float64
}

// OpenRasterizer opens path for rendering. A non-positive dpi selects DefaultDPI.
func OpenRasterizer(path string, dpi float64) (*Rasterizer, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s for rendering: %w", path, err)
	}
	slog.Debug("Opened PDF for rendering", "path", path, "pages", doc.NumPage(), "dpi", dpi)
	return &Rasterizer{doc: doc, path: path, dpi: dpi}, nil
}

// PageCount returns the number of pages.
func (r *Rasterizer) PageCount() int { return r.doc.NumPage() }

// DPI returns the rendering resolution.
func (r *Rasterizer) DPI() float64 { return r.dpi }

// Rasterize renders a 1-based page number.
func (r *Rasterizer) Rasterize(page int) (*document.Page, error) {
	if page < 1 || page > r.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, r.doc.NumPage())
	}
	img, err := r.doc.ImageDPI(page-1, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	if img == nil {
		return nil, errors.New("renderer returned no image")
	}
	return document.NewPage(page, img), nil
}

// Close releases the MuPDF document.
func (r *Rasterizer) Close() error {
	return r.doc.Close()
}
