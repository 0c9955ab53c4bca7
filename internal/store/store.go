// Package store persists extraction artifacts: cropped images, the image
// and topic JSON documents, the validation report and an optional SQLite
// export.
package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/MeKo-Tech/vistext/internal/validation"
)

// Artifact file names inside the output directory.
const (
	ImagesFile = "images.json"
	TopicsFile = "topics.json"
	ReportFile = "validation_report.json"
	ImagesDir  = "images"
)

// Store writes artifacts under one output directory.
type Store struct {
	dir string
}

// Open creates dir and its images subdirectory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, ImagesDir), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Path joins name onto the output directory.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// RegionFilename names a detected region crop.
func RegionFilename(page, rank int, hash string) string {
	return fmt.Sprintf("page_%d_region_%d_%s.png", page, rank, hash)
}

// EmbeddedFilename names an embedded image.
func EmbeddedFilename(page, index int, hash string) string {
	return fmt.Sprintf("page_%d_embedded_%d_%s.png", page, index, hash)
}

// SaveImage writes img as PNG to images/filename and returns its path.
func (s *Store) SaveImage(filename string, img image.Image) (string, error) {
	path := filepath.Join(s.dir, ImagesDir, filename)
	if err := utils.SavePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// SaveEncoded decodes a base64 payload from a partition element and stores
// it as PNG named after id. It returns the decoded image with the path.
func (s *Store) SaveEncoded(id, payload string) (image.Image, string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", id, err)
	}
	img, err := utils.DecodeImage(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", id, err)
	}
	path, err := s.SaveImage(id+".png", img)
	if err != nil {
		return nil, "", err
	}
	return img, path, nil
}

// WriteJSON writes v as indented JSON to name.
func (s *Store) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteAll writes the three JSON documents of a run.
func (s *Store) WriteAll(images []*document.ExtractedImage, topics []*document.QuestionBlock, report validation.Report) error {
	if images == nil {
		images = []*document.ExtractedImage{}
	}
	if topics == nil {
		topics = []*document.QuestionBlock{}
	}
	if err := s.WriteJSON(ImagesFile, images); err != nil {
		return err
	}
	if err := s.WriteJSON(TopicsFile, topics); err != nil {
		return err
	}
	return validation.WriteFile(s.Path(ReportFile), report)
}

// ReadImages loads an images document.
func ReadImages(path string) ([]*document.ExtractedImage, error) {
	var out []*document.ExtractedImage
	return out, readJSON(path, &out)
}

// ReadTopics loads a topics document.
func ReadTopics(path string) ([]*document.QuestionBlock, error) {
	var out []*document.QuestionBlock
	return out, readJSON(path, &out)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-provided artifact path
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
