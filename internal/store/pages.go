package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
)

// PagesDir holds the per-page folders written by WritePageFolders.
const PagesDir = "pages"

// PageFolder is the metadata document written into each page folder.
type PageFolder struct {
	Page           int                 `json:"page"`
	Width          int                 `json:"width"`
	Height         int                 `json:"height"`
	EmbeddedAssets []document.AssetRef `json:"embedded_assets"`
	Images         []PageImage         `json:"images"`
	ImageCount     int                 `json:"image_count"`
	BySource       map[string]int      `json:"images_by_source"`
}

// PageImage describes one image copied into a page folder.
type PageImage struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Source    string `json:"source"`
	Score     int    `json:"score"`
	SizeBytes int64  `json:"size_bytes"`
	Path      string `json:"path"`
}

// PageFolderName names the folder of a page, e.g. page_088.
func PageFolderName(page int) string { return fmt.Sprintf("page_%03d", page) }

// PageMetadataFile names the metadata document inside a page folder.
func PageMetadataFile(page int) string { return PageFolderName(page) + "_images.json" }

// WritePageFolders copies the stored images of every page into
// pages/page_NNN/ next to a page_NNN_images.json document. Pages without
// images get no folder. Images that cannot be copied are logged and left
// out of the metadata.
func (s *Store) WritePageFolders(pages []*document.Page, images []*document.ExtractedImage) (int, error) {
	byPage := make(map[int][]*document.ExtractedImage)
	for _, img := range images {
		byPage[img.Page] = append(byPage[img.Page], img)
	}

	written := 0
	for _, p := range pages {
		imgs := byPage[p.Number]
		if len(imgs) == 0 {
			continue
		}
		dir := filepath.Join(s.dir, PagesDir, PageFolderName(p.Number))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return written, fmt.Errorf("create page folder: %w", err)
		}

		folder := PageFolder{
			Page:           p.Number,
			Width:          p.Width,
			Height:         p.Height,
			EmbeddedAssets: p.Assets,
			Images:         []PageImage{},
			BySource:       make(map[string]int),
		}
		if folder.EmbeddedAssets == nil {
			folder.EmbeddedAssets = []document.AssetRef{}
		}
		for _, img := range imgs {
			dst := filepath.Join(dir, img.Filename)
			if err := utils.CopyFile(img.Path, dst); err != nil {
				slog.Warn("Skipping image in page folder", "page", p.Number, "file", img.Filename, "error", err)
				continue
			}
			entry := PageImage{ID: img.ID, Filename: img.Filename, Source: img.Source, Path: dst}
			if img.Score != nil {
				entry.Score = img.Score.Score
			}
			if info, err := os.Stat(dst); err == nil {
				entry.SizeBytes = info.Size()
			}
			folder.Images = append(folder.Images, entry)
			folder.BySource[img.Source]++
		}
		folder.ImageCount = len(folder.Images)

		rel := filepath.Join(PagesDir, PageFolderName(p.Number), PageMetadataFile(p.Number))
		if err := s.WriteJSON(rel, folder); err != nil {
			return written, err
		}
		written++
	}
	slog.Debug("Page folders written", "dir", filepath.Join(s.dir, PagesDir), "folders", written)
	return written, nil
}

// ReadPageFolder loads the metadata document of one page folder.
func ReadPageFolder(path string) (*PageFolder, error) {
	var out PageFolder
	if err := readJSON(path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
