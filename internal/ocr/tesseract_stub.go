//go:build !ocr

package ocr

import (
	"image"

	"github.com/MeKo-Tech/vistext/internal/document"
)

// Tesseract is the stub used when OCR support is not compiled in.
type Tesseract struct{}

// New returns ErrOCRNotEnabled.
func New(Config) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// LocateTextBoxes returns ErrOCRNotEnabled.
func (t *Tesseract) LocateTextBoxes(image.Image) ([]document.TextBox, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op; it is safe on a nil locator.
func (t *Tesseract) Close() error { return nil }
