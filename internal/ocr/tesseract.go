//go:build ocr

package ocr

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract locates words with the Tesseract engine. A single client is
// not safe for concurrent use, so calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
}

// New creates a Tesseract locator. Close it when done.
func New(cfg Config) (*Tesseract, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ocr: set language %q: %w", cfg.Language, err)
	}
	return &Tesseract{client: client, cfg: cfg}, nil
}

// LocateTextBoxes returns the filtered word boxes of img in img's coordinates.
func (t *Tesseract) LocateTextBoxes(img image.Image) ([]document.TextBox, error) {
	data, err := utils.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("ocr: set image: %w", err)
	}
	words, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("ocr: bounding boxes: %w", err)
	}

	origin := img.Bounds().Min
	boxes := make([]document.TextBox, 0, len(words))
	for _, w := range words {
		boxes = append(boxes, document.TextBox{
			Rect:       w.Box.Add(origin),
			Confidence: w.Confidence,
			Text:       strings.TrimSpace(w.Word),
		})
	}
	return FilterBoxes(boxes, t.cfg), nil
}

// Close releases the engine.
func (t *Tesseract) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}
