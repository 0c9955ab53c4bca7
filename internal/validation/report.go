// Package validation reduces the final topic and image collections into a
// read-only quality report.
package validation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MeKo-Tech/vistext/internal/document"
)

// Quality bars used by Warnings and Verdict.
const (
	ValidConfidence   = 0.3
	GoodSuccessRate   = 0.8
	GoodImageCoverage = 0.3
)

// ErrNoTopics is the marker placed in Report.Error for an empty topic list.
const ErrNoTopics = "No topics extracted"

// ConfidenceRange is the observed min/max topic confidence.
type ConfidenceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Report holds aggregate extraction metrics. A report for an empty topic
// list carries only Error.
type Report struct {
	Error string `json:"error,omitempty"`

	TotalTopics              int                           `json:"total_topics"`
	TotalImages              int                           `json:"total_images"`
	ValidTopics              int                           `json:"valid_topics"`
	TopicsWithImages         int                           `json:"topics_with_images"`
	ImageAssociations        int                           `json:"image_associations"`
	SuccessRate              float64                       `json:"success_rate"`
	ImageCoverage            float64                       `json:"image_coverage"`
	QuestionTypeDistribution map[document.QuestionType]int `json:"question_type_distribution"`
	AverageConfidence        float64                       `json:"average_confidence"`
	ConfidenceRange          ConfidenceRange               `json:"confidence_range"`

	Warnings []string `json:"warnings,omitempty"`
}

// Failed reports whether the report carries the error marker.
func (r Report) Failed() bool { return r.Error != "" }

// Build computes the report. It never mutates its inputs.
func Build(topics []*document.QuestionBlock, images []*document.ExtractedImage) Report {
	if len(topics) == 0 {
		return Report{Error: ErrNoTopics}
	}

	r := Report{
		TotalTopics:              len(topics),
		TotalImages:              len(images),
		QuestionTypeDistribution: make(map[document.QuestionType]int),
		ConfidenceRange:          ConfidenceRange{Min: topics[0].Confidence, Max: topics[0].Confidence},
	}
	var sum float64
	for _, t := range topics {
		r.QuestionTypeDistribution[t.Type]++
		sum += t.Confidence
		r.ConfidenceRange.Min = min(r.ConfidenceRange.Min, t.Confidence)
		r.ConfidenceRange.Max = max(r.ConfidenceRange.Max, t.Confidence)
		if t.Subject != nil && *t.Subject != "" && t.Confidence > ValidConfidence {
			r.ValidTopics++
		}
		if len(t.Images) > 0 {
			r.TopicsWithImages++
			r.ImageAssociations += len(t.Images)
		}
	}
	n := float64(len(topics))
	r.AverageConfidence = sum / n
	r.SuccessRate = float64(r.ValidTopics) / n
	r.ImageCoverage = float64(r.TopicsWithImages) / n

	if r.SuccessRate <= GoodSuccessRate {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("success rate %.1f%% is at or below %.0f%%", r.SuccessRate*100, GoodSuccessRate*100))
	}
	if r.ImageCoverage <= GoodImageCoverage {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("image coverage %.1f%% is at or below %.0f%%", r.ImageCoverage*100, GoodImageCoverage*100))
	}
	return r
}

// Verdict levels.
const (
	VerdictComplete    = "complete"
	VerdictTextOnly    = "text_only"
	VerdictNeedsReview = "needs_review"
)

// Verdict classifies the run: complete when both text and images are good,
// text_only when only text is, needs_review otherwise.
func (r Report) Verdict() string {
	switch {
	case r.Failed():
		return VerdictNeedsReview
	case r.SuccessRate > GoodSuccessRate && r.ImageCoverage > GoodImageCoverage:
		return VerdictComplete
	case r.SuccessRate > GoodSuccessRate:
		return VerdictTextOnly
	default:
		return VerdictNeedsReview
	}
}

// Summary returns the human-readable line for a verdict.
func (r Report) Summary() string {
	switch r.Verdict() {
	case VerdictComplete:
		return "Extraction successful: topics and images ready for import."
	case VerdictTextOnly:
		return "Text extraction successful; image coverage could be improved."
	default:
		return "Extraction quality below optimal; consider manual review."
	}
}

// MarshalJSON writes only the error marker for a failed report.
func (r Report) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	type alias Report
	a := alias(r)
	if a.QuestionTypeDistribution == nil {
		a.QuestionTypeDistribution = map[document.QuestionType]int{}
	}
	return json.Marshal(a)
}

// WriteFile stores the report as indented JSON.
func WriteFile(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal validation report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write validation report: %w", err)
	}
	return nil
}

// ReadFile loads a report written by WriteFile.
func ReadFile(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-provided report path
	if err != nil {
		return r, fmt.Errorf("read validation report: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse validation report: %w", err)
	}
	return r, nil
}
