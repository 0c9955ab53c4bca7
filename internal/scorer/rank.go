package scorer

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Entry is a scored image file.
type Entry struct {
	Path   string `json:"path"`
	Page   int    `json:"page"`
	Region int    `json:"region_index"`
	Result Result `json:"analysis"`
}

// Ranking splits entries into likely pictures, likely text and failures.
type Ranking struct {
	LikelyImages []Entry `json:"likely_images"`
	LikelyText   []Entry `json:"likely_text"`
	Errors       []Entry `json:"errors"`
}

// Rank partitions entries and orders both scored groups by score, highest
// first. Equal scores keep their input order.
func Rank(entries []Entry) Ranking {
	var r Ranking
	for _, e := range entries {
		switch {
		case e.Result.Failed():
			r.Errors = append(r.Errors, e)
		case e.Result.LikelyImage:
			r.LikelyImages = append(r.LikelyImages, e)
		default:
			r.LikelyText = append(r.LikelyText, e)
		}
	}
	byScore := func(s []Entry) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Result.Score > s[j].Result.Score })
	}
	byScore(r.LikelyImages)
	byScore(r.LikelyText)
	return r
}

// PageBreakdown counts likely images and likely text per page.
func (r Ranking) PageBreakdown() map[int][2]int {
	out := make(map[int][2]int)
	for _, e := range r.LikelyImages {
		c := out[e.Page]
		c[0]++
		out[e.Page] = c
	}
	for _, e := range r.LikelyText {
		c := out[e.Page]
		c[1]++
		out[e.Page] = c
	}
	return out
}

// ManifestEntry describes one image copied into the filtered set.
type ManifestEntry struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	SourcePath       string `json:"-"`
	Page             int    `json:"page"`
	Score            int    `json:"score"`
	Dimensions       string `json:"dimensions"`
	Description      string `json:"description"`
}

// Manifest lists the likely images at or above a minimum score.
type Manifest struct {
	FilterCriteria string          `json:"filter_criteria"`
	TotalImages    int             `json:"total_images"`
	Images         []ManifestEntry `json:"images"`
}

// BuildManifest selects likely images scoring at least minScore. Each entry
// is renamed score_<n>_<original> for the filtered directory.
func BuildManifest(r Ranking, minScore int) Manifest {
	m := Manifest{
		FilterCriteria: fmt.Sprintf("Score >= %d", minScore),
		Images:         []ManifestEntry{},
	}
	for _, e := range r.LikelyImages {
		if e.Result.Score < minScore {
			continue
		}
		name := filepath.Base(e.Path)
		m.Images = append(m.Images, ManifestEntry{
			Filename:         fmt.Sprintf("score_%d_%s", e.Result.Score, name),
			OriginalFilename: name,
			SourcePath:       e.Path,
			Page:             e.Page,
			Score:            e.Result.Score,
			Dimensions:       fmt.Sprintf("%dx%d", e.Result.Width, e.Result.Height),
			Description:      fmt.Sprintf("Page %d, Region %d", e.Page, e.Region),
		})
	}
	m.TotalImages = len(m.Images)
	return m
}
