// Package associator links extracted images to classified topics by page
// proximity and visual keywords in the topic text.
package associator

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/document"
)

// DefaultKeywords are the words that let a topic claim an image from an
// adjacent page.
var DefaultKeywords = []string{
	"image", "picture", "photograph", "figure", "shown",
	"observe", "see", "visual", "appears", "demonstrates",
	"lesion", "rash", "condition", "skin", "wound",
}

// Config holds the keyword list. Matching is a case-insensitive substring test.
type Config struct {
	Keywords []string `mapstructure:"keywords" yaml:"keywords" json:"keywords"`
}

// DefaultConfig returns the stock keyword list.
func DefaultConfig() Config {
	return Config{Keywords: slices.Clone(DefaultKeywords)}
}

// Validate rejects an empty or blank keyword list.
func (c Config) Validate() error {
	if len(c.Keywords) == 0 {
		return errors.New("associator: keyword list is empty")
	}
	for i, k := range c.Keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("associator: keyword %d is blank", i)
		}
	}
	return nil
}

// Stats summarizes one association pass.
type Stats struct {
	Links            int `json:"links"`
	TopicsWithImages int `json:"topics_with_images"`
	ImagesLinked     int `json:"images_linked"`
	AdjacentLinks    int `json:"adjacent_links"`
}

// Associator applies the page-distance rule.
type Associator struct {
	keywords []string
}

// New builds an associator from cfg.
func New(cfg Config) (*Associator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kw := make([]string, len(cfg.Keywords))
	for i, k := range cfg.Keywords {
		kw[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return &Associator{keywords: kw}, nil
}

// MentionsVisuals reports whether text contains any configured keyword.
func (a *Associator) MentionsVisuals(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range a.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Associate rewrites topic.Images and the image back-references. Images on
// the topic's page always link; images one page away link only when the
// topic mentions visuals. Topics are visited in order, so the scalar
// AssociatedTopicID ends up holding the last linking topic while
// AssociatedTopicIDs keeps all of them. Previous associations are discarded.
func (a *Associator) Associate(topics []*document.QuestionBlock, images []*document.ExtractedImage) Stats {
	for _, img := range images {
		img.AssociatedTopicID = nil
		img.AssociatedTopicIDs = nil
	}

	var st Stats
	for _, t := range topics {
		t.Images = []string{}
		visual := a.MentionsVisuals(t.Content)
		for _, img := range images {
			dist := img.Page - t.Page
			if dist < 0 {
				dist = -dist
			}
			if dist > 1 || (dist == 1 && !visual) {
				continue
			}
			if dist == 1 {
				st.AdjacentLinks++
			}
			t.Images = append(t.Images, img.ID)
			id := t.TopicID
			img.AssociatedTopicID = &id
			img.AssociatedTopicIDs = append(img.AssociatedTopicIDs, id)
			st.Links++
		}
		if len(t.Images) > 0 {
			st.TopicsWithImages++
		}
	}
	for _, img := range images {
		if img.AssociatedTopicID != nil {
			st.ImagesLinked++
		}
	}

	slog.Debug("Associated images with topics",
		"topics", len(topics), "images", len(images),
		"links", st.Links, "adjacent_links", st.AdjacentLinks)
	return st
}

// Associate runs the default associator.
func Associate(topics []*document.QuestionBlock, images []*document.ExtractedImage) Stats {
	a, _ := New(DefaultConfig())
	return a.Associate(topics, images)
}

// CheckConsistency verifies that every forward link has a matching back
// reference and the reverse. It returns all violations joined.
func CheckConsistency(topics []*document.QuestionBlock, images []*document.ExtractedImage) error {
	byImage := make(map[string]*document.ExtractedImage, len(images))
	for _, img := range images {
		byImage[img.ID] = img
	}
	byTopic := make(map[string]*document.QuestionBlock, len(topics))
	for _, t := range topics {
		byTopic[t.TopicID] = t
	}

	var errs []error
	for _, t := range topics {
		for _, id := range t.Images {
			img, ok := byImage[id]
			if !ok {
				errs = append(errs, fmt.Errorf("topic %s lists unknown image %s", t.TopicID, id))
				continue
			}
			if !slices.Contains(img.AssociatedTopicIDs, t.TopicID) {
				errs = append(errs, fmt.Errorf("image %s does not list topic %s", id, t.TopicID))
			}
		}
	}
	for _, img := range images {
		for _, tid := range img.AssociatedTopicIDs {
			t, ok := byTopic[tid]
			if !ok {
				errs = append(errs, fmt.Errorf("image %s references unknown topic %s", img.ID, tid))
				continue
			}
			if !slices.Contains(t.Images, img.ID) {
				errs = append(errs, fmt.Errorf("topic %s does not list image %s", tid, img.ID))
			}
		}
		switch {
		case img.AssociatedTopicID == nil && len(img.AssociatedTopicIDs) > 0:
			errs = append(errs, fmt.Errorf("image %s has topic list but no topic id", img.ID))
		case img.AssociatedTopicID != nil && len(img.AssociatedTopicIDs) == 0:
			errs = append(errs, fmt.Errorf("image %s has topic id %s but empty topic list", img.ID, *img.AssociatedTopicID))
		case img.AssociatedTopicID != nil && *img.AssociatedTopicID != img.AssociatedTopicIDs[len(img.AssociatedTopicIDs)-1]:
			errs = append(errs, fmt.Errorf("image %s topic id %s is not the last linking topic", img.ID, *img.AssociatedTopicID))
		}
	}
	return errors.Join(errs...)
}
