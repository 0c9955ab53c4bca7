// Package scorer rates cropped regions by simple visual-complexity
// statistics to separate pictures from extraction noise.
package scorer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/disintegration/imaging"
)

// Stats are the pixel statistics a score is computed from.
type Stats struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// MeanVariance is the population variance per RGB channel, averaged.
	MeanVariance float64 `json:"variance"`
	// Brightness is the mean per RGB channel, averaged.
	Brightness float64 `json:"brightness"`
}

// Area returns width × height.
func (s Stats) Area() int { return s.Width * s.Height }

// AspectRatio returns longer side / shorter side.
func (s Stats) AspectRatio() float64 { return utils.AspectRatio(s.Width, s.Height) }

// Result is the outcome of scoring one image.
type Result struct {
	Stats
	Area        int     `json:"area"`
	AspectRatio float64 `json:"aspect_ratio"`
	Score       int     `json:"score"`
	LikelyImage bool    `json:"likely_image"`
	Error       string  `json:"error,omitempty"`
}

// Failed reports whether the image could not be scored.
func (r Result) Failed() bool { return r.Error != "" }

// Quality converts the result into the form stored on extracted images.
func (r Result) Quality() *document.QualityScore {
	return &document.QualityScore{
		Score:       r.Score,
		LikelyImage: r.LikelyImage,
		Variance:    r.MeanVariance,
		Brightness:  r.Brightness,
		AspectRatio: r.AspectRatio,
	}
}

var errEmptyImage = errors.New("image has no pixels")

// Scorer applies the additive band rule. It has no state besides its
// configuration and is safe for concurrent use.
type Scorer struct {
	config Config
}

// New creates a scorer from a validated configuration.
func New(config Config) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scorer config: %w", err)
	}
	return &Scorer{config: config}, nil
}

// GetConfig returns the scorer configuration.
func (s *Scorer) GetConfig() Config { return s.config }

// Score rates precomputed statistics.
func (s *Scorer) Score(st Stats) Result {
	c := s.config
	res := Result{Stats: st, Area: st.Area(), AspectRatio: st.AspectRatio()}
	if st.Width <= 0 || st.Height <= 0 {
		res.Error = errEmptyImage.Error()
		return res
	}

	score := 0
	switch {
	case res.Area > c.AreaLarge:
		score += c.AreaLargePoints
	case res.Area > c.AreaMedium:
		score += c.AreaMediumPoints
	case res.Area > c.AreaSmall:
		score += c.AreaSmallPoints
	}

	switch {
	case st.MeanVariance > c.VarianceHigh:
		score += c.VarianceHighPoints
	case st.MeanVariance > c.VarianceMedium:
		score += c.VarianceMediumPoints
	case st.MeanVariance > c.VarianceLow:
		score += c.VarianceLowPoints
	}

	switch {
	case res.AspectRatio < c.AspectCompact:
		score += c.AspectCompactPoints
	case res.AspectRatio < c.AspectModerate:
		score += c.AspectModeratePoints
	}

	if st.Brightness > c.BrightnessMin && st.Brightness < c.BrightnessMax {
		score += c.BrightnessPoints
	}

	res.Score = score
	res.LikelyImage = score > c.LikelyThreshold
	return res
}

// ScoreImage computes statistics for img and scores them.
func (s *Scorer) ScoreImage(img image.Image) Result {
	st, err := ComputeStats(img)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return s.Score(st)
}

// ScoreFile decodes the image at path and scores it. Decode failures are
// reported on the result with score 0, never as an error.
func (s *Scorer) ScoreFile(path string) Result {
	img, err := utils.LoadImage(path)
	if err != nil {
		slog.Warn("Could not score image", "path", path, "error", err)
		return Result{Error: err.Error()}
	}
	return s.ScoreImage(img)
}

// ComputeStats returns per-channel mean and population variance over the
// RGB channels of img, averaged across channels. Alpha is ignored.
func ComputeStats(img image.Image) (Stats, error) {
	if img == nil {
		return Stats{}, errEmptyImage
	}
	b := img.Bounds()
	if b.Empty() {
		return Stats{}, errEmptyImage
	}
	nrgba := imaging.Clone(img)
	w, h := b.Dx(), b.Dy()
	n := float64(w * h)

	var sum, sum2 [3]float64
	for y := range h {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			for c := range 3 {
				v := float64(row[x+c])
				sum[c] += v
				sum2[c] += v * v
			}
		}
	}

	var meanSum, varSum float64
	for c := range 3 {
		mean := sum[c] / n
		variance := sum2[c]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		meanSum += mean
		varSum += variance
	}
	return Stats{Width: w, Height: h, MeanVariance: varSum / 3, Brightness: meanSum / 3}, nil
}
