package scorer

import "fmt"

// Config holds every cutoff of the additive scoring rule. Bands are checked
// from the highest threshold down; the first band that matches contributes.
type Config struct {
	AreaLarge        int `mapstructure:"area_large" yaml:"area_large" json:"area_large"`
	AreaMedium       int `mapstructure:"area_medium" yaml:"area_medium" json:"area_medium"`
	AreaSmall        int `mapstructure:"area_small" yaml:"area_small" json:"area_small"`
	AreaLargePoints  int `mapstructure:"area_large_points" yaml:"area_large_points" json:"area_large_points"`
	AreaMediumPoints int `mapstructure:"area_medium_points" yaml:"area_medium_points" json:"area_medium_points"`
	AreaSmallPoints  int `mapstructure:"area_small_points" yaml:"area_small_points" json:"area_small_points"`

	VarianceHigh         float64 `mapstructure:"variance_high" yaml:"variance_high" json:"variance_high"`
	VarianceMedium       float64 `mapstructure:"variance_medium" yaml:"variance_medium" json:"variance_medium"`
	VarianceLow          float64 `mapstructure:"variance_low" yaml:"variance_low" json:"variance_low"`
	VarianceHighPoints   int     `mapstructure:"variance_high_points" yaml:"variance_high_points" json:"variance_high_points"`
	VarianceMediumPoints int     `mapstructure:"variance_medium_points" yaml:"variance_medium_points" json:"variance_medium_points"`
	VarianceLowPoints    int     `mapstructure:"variance_low_points" yaml:"variance_low_points" json:"variance_low_points"`

	// Aspect ratio is longer side / shorter side; below the cutoff scores.
	AspectCompact        float64 `mapstructure:"aspect_compact" yaml:"aspect_compact" json:"aspect_compact"`
	AspectModerate       float64 `mapstructure:"aspect_moderate" yaml:"aspect_moderate" json:"aspect_moderate"`
	AspectCompactPoints  int     `mapstructure:"aspect_compact_points" yaml:"aspect_compact_points" json:"aspect_compact_points"`
	AspectModeratePoints int     `mapstructure:"aspect_moderate_points" yaml:"aspect_moderate_points" json:"aspect_moderate_points"`

	// Brightness strictly inside (BrightnessMin, BrightnessMax) scores.
	BrightnessMin    float64 `mapstructure:"brightness_min" yaml:"brightness_min" json:"brightness_min"`
	BrightnessMax    float64 `mapstructure:"brightness_max" yaml:"brightness_max" json:"brightness_max"`
	BrightnessPoints int     `mapstructure:"brightness_points" yaml:"brightness_points" json:"brightness_points"`

	// LikelyThreshold: likely_image iff score > LikelyThreshold.
	LikelyThreshold int `mapstructure:"likely_threshold" yaml:"likely_threshold" json:"likely_threshold"`
}

// DefaultConfig returns the stock scoring bands.
func DefaultConfig() Config {
	return Config{
		AreaLarge:            50000,
		AreaMedium:           20000,
		AreaSmall:            10000,
		AreaLargePoints:      30,
		AreaMediumPoints:     20,
		AreaSmallPoints:      10,
		VarianceHigh:         2000,
		VarianceMedium:       1000,
		VarianceLow:          500,
		VarianceHighPoints:   25,
		VarianceMediumPoints: 15,
		VarianceLowPoints:    10,
		AspectCompact:        3,
		AspectModerate:       5,
		AspectCompactPoints:  15,
		AspectModeratePoints: 10,
		BrightnessMin:        50,
		BrightnessMax:        200,
		BrightnessPoints:     10,
		LikelyThreshold:      40,
	}
}

// MaxScore is the score of an image that hits the top band everywhere.
func (c Config) MaxScore() int {
	return c.AreaLargePoints + c.VarianceHighPoints + c.AspectCompactPoints + c.BrightnessPoints
}

// Validate checks that every band is ordered.
func (c Config) Validate() error {
	if c.AreaSmall <= 0 || c.AreaSmall > c.AreaMedium || c.AreaMedium > c.AreaLarge {
		return fmt.Errorf("area bands must satisfy 0 < small <= medium <= large, got %d/%d/%d",
			c.AreaSmall, c.AreaMedium, c.AreaLarge)
	}
	if c.VarianceLow < 0 || c.VarianceLow > c.VarianceMedium || c.VarianceMedium > c.VarianceHigh {
		return fmt.Errorf("variance bands must satisfy 0 <= low <= medium <= high, got %.0f/%.0f/%.0f",
			c.VarianceLow, c.VarianceMedium, c.VarianceHigh)
	}
	if c.AspectCompact < 1 || c.AspectModerate < c.AspectCompact {
		return fmt.Errorf("aspect bands must satisfy 1 <= compact <= moderate, got %.1f/%.1f",
			c.AspectCompact, c.AspectModerate)
	}
	if c.BrightnessMin >= c.BrightnessMax {
		return fmt.Errorf("brightness window is empty: (%.0f, %.0f)", c.BrightnessMin, c.BrightnessMax)
	}
	if c.LikelyThreshold < 0 {
		return fmt.Errorf("likely threshold must be >= 0, got %d", c.LikelyThreshold)
	}
	return nil
}
