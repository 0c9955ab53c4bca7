// Package ocr locates text runs on rasterized pages so the region detector
// can suppress them.
//
// The Tesseract engine is wired in through gosseract and only compiled with
// the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Without the tag, New returns ErrOCRNotEnabled and callers detect regions
// without text suppression.
package ocr

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/vistext/internal/document"
)

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Config controls the engine and the word filter.
type Config struct {
	Language string `mapstructure:"language" yaml:"language" json:"language"`
	// MinConfidence drops words at or below this Tesseract confidence (0-100).
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	// MinSide drops boxes whose width or height is at or below this many pixels.
	MinSide int `mapstructure:"min_side" yaml:"min_side" json:"min_side"`
}

// DefaultConfig returns English with the stock word filter.
func DefaultConfig() Config {
	return Config{Language: "eng", MinConfidence: 30, MinSide: 10}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Language == "" {
		return errors.New("ocr: language is required")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("ocr: min_confidence %.1f outside [0,100]", c.MinConfidence)
	}
	if c.MinSide < 0 {
		return fmt.Errorf("ocr: min_side %d is negative", c.MinSide)
	}
	return nil
}

// FilterBoxes keeps the boxes that are confident and large enough to be text.
func FilterBoxes(boxes []document.TextBox, cfg Config) []document.TextBox {
	out := make([]document.TextBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence <= cfg.MinConfidence {
			continue
		}
		if b.Rect.Dx() <= cfg.MinSide || b.Rect.Dy() <= cfg.MinSide {
			continue
		}
		out = append(out, b)
	}
	return out
}
