package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/common"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/validation"
)

// Result is everything a run produced.
type Result struct {
	Source       string                     `json:"source"`
	OutputDir    string                     `json:"output_dir"`
	RunID        string                     `json:"run_id,omitempty"`
	Pages        []int                      `json:"pages"`
	PageInfo     []*document.Page           `json:"page_info"`
	Images       []*document.ExtractedImage `json:"-"`
	Topics       []*document.QuestionBlock  `json:"-"`
	Report       validation.Report          `json:"report"`
	Association  associator.Stats           `json:"association"`
	SkippedPages int                        `json:"skipped_pages"`
	Duration     time.Duration              `json:"duration_ns"`
	Stages       *common.StageTimes         `json:"stages_ms"`
	Memory       common.MemStats            `json:"memory"`
}

// ImagesBySource counts images per source.
func (r *Result) ImagesBySource() map[string]int {
	out := make(map[string]int)
	for _, img := range r.Images {
		out[img.Source]++
	}
	return out
}

// EmbeddedAssets counts the embedded image objects found on the processed
// pages, whether or not they were kept.
func (r *Result) EmbeddedAssets() int {
	n := 0
	for _, p := range r.PageInfo {
		n += len(p.Assets)
	}
	return n
}

// Summary renders a short human-readable digest of the run.
func (r *Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source:  %s\n", r.Source)
	fmt.Fprintf(&sb, "Output:  %s\n", r.OutputDir)
	fmt.Fprintf(&sb, "Pages:   %d processed, %d skipped, %d embedded images found\n",
		len(r.Pages)-r.SkippedPages, r.SkippedPages, r.EmbeddedAssets())
	by := r.ImagesBySource()
	fmt.Fprintf(&sb, "Images:  %d (%d detected, %d embedded, %d partitioned)\n", len(r.Images),
		by[document.SourceDetectedRegion], by[document.SourceEmbedded], by[document.SourcePartition])
	fmt.Fprintf(&sb, "Topics:  %d, %d with images, %d links\n",
		len(r.Topics), r.Association.TopicsWithImages, r.Association.Links)
	if r.RunID != "" {
		fmt.Fprintf(&sb, "Run ID:  %s\n", r.RunID)
	}
	if r.Stages != nil {
		fmt.Fprintf(&sb, "Timing:  %s (total %v)\n", r.Stages, r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(&sb, "Verdict: %s\n", r.Report.Summary())
	return sb.String()
}
