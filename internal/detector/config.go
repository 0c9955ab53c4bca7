package detector

import (
	"errors"
	"fmt"
)

// Config holds the region detector thresholds.
type Config struct {
	// TextPadding expands every text box before it is masked out.
	TextPadding int
	// CannyLow and CannyHigh are the hysteresis thresholds on the L1 gradient.
	CannyLow  float64
	CannyHigh float64
	// KernelSize is the side of the square structuring element.
	KernelSize       int
	DilateIterations int
	ErodeIterations  int
	// MinSize is the minimum width and height of a candidate in pixels.
	MinSize int
	// MaxAspectRatio bounds longer side / shorter side.
	MaxAspectRatio float64
	// MinFillRatio is the rejection threshold on contour area / box area.
	MinFillRatio float64
	// MaxRegions caps the candidates kept per page.
	MaxRegions int
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		TextPadding:      5,
		CannyLow:         50,
		CannyHigh:        150,
		KernelSize:       5,
		DilateIterations: 2,
		ErodeIterations:  1,
		MinSize:          100,
		MaxAspectRatio:   10,
		MinFillRatio:     0.3,
		MaxRegions:       10,
	}
}

// Validate rejects configurations the detector cannot run with.
func (c Config) Validate() error {
	if c.TextPadding < 0 {
		return fmt.Errorf("text padding must be >= 0, got %d", c.TextPadding)
	}
	if c.CannyLow < 0 || c.CannyHigh < c.CannyLow {
		return fmt.Errorf("invalid canny thresholds %.1f/%.1f", c.CannyLow, c.CannyHigh)
	}
	if c.KernelSize < 1 {
		return fmt.Errorf("kernel size must be >= 1, got %d", c.KernelSize)
	}
	if c.DilateIterations < 0 || c.ErodeIterations < 0 {
		return errors.New("morphology iterations must be >= 0")
	}
	if c.MinSize < 1 {
		return fmt.Errorf("min size must be >= 1, got %d", c.MinSize)
	}
	if c.MaxAspectRatio < 1 {
		return fmt.Errorf("max aspect ratio must be >= 1, got %.2f", c.MaxAspectRatio)
	}
	if c.MinFillRatio < 0 || c.MinFillRatio > 1 {
		return fmt.Errorf("min fill ratio must be within [0,1], got %.2f", c.MinFillRatio)
	}
	if c.MaxRegions < 1 {
		return fmt.Errorf("max regions must be >= 1, got %d", c.MaxRegions)
	}
	return nil
}
