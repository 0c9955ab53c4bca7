package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/MeKo-Tech/vistext/internal/scorer"
	"github.com/MeKo-Tech/vistext/internal/store"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// analyzeCmd scores a directory of extracted images.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir>",
	Short: "Score extracted images and keep the most promising ones",
	Long: `Score every image in a directory with the image quality heuristics, print a
ranking of likely pictures and likely text, and copy likely pictures scoring at
least --min-score into a filtered directory with a manifest.json.

<dir> is either an extraction output directory (images.json supplies page and
region numbers) or a plain directory of images, whose page and region numbers
are read from names like page_88_region_2_<hash>.png.

Examples:
  vistext analyze out
  vistext analyze out/images --min-score 50 --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.Int("workers", 4, "images scored in parallel")
	f.Int("min-score", 40, "minimum score for the filtered set")
	f.String("filtered-dir", "filtered", "filtered directory, relative to <dir>")
	bindFlag(f, "workers", "analyze.workers")
	bindFlag(f, "min-score", "analyze.min_score")
	bindFlag(f, "filtered-dir", "analyze.filtered_dir")
}

var regionName = regexp.MustCompile(`page_(\d+)_(?:region|embedded)_(\d+)`)

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	sc, err := scorer.New(cfg.Scorer)
	if err != nil {
		return err
	}

	dir := args[0]
	entries, err := collectEntries(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	var g errgroup.Group
	g.SetLimit(cfg.Analyze.Workers)
	for i := range entries {
		g.Go(func() error {
			entries[i].Result = sc.ScoreFile(entries[i].Path)
			return nil
		})
	}
	_ = g.Wait()

	ranking := scorer.Rank(entries)
	printRanking(cmd.OutOrStdout(), ranking)

	manifest := scorer.BuildManifest(ranking, cfg.Analyze.MinScore)
	filtered := cfg.Analyze.FilteredDir
	if !filepath.IsAbs(filtered) {
		filtered = filepath.Join(dir, filtered)
	}
	if err := writeFiltered(filtered, manifest); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d images with score >= %d copied to %s\n",
		manifest.TotalImages, cfg.Analyze.MinScore, filtered)
	return nil
}

// collectEntries prefers images.json metadata and falls back to a directory scan.
func collectEntries(dir string) ([]scorer.Entry, error) {
	if imgs, err := store.ReadImages(filepath.Join(dir, store.ImagesFile)); err == nil {
		entries := make([]scorer.Entry, 0, len(imgs))
		for _, img := range imgs {
			path := img.Path
			if _, statErr := os.Stat(path); path == "" || statErr != nil {
				path = filepath.Join(dir, store.ImagesDir, img.Filename)
			}
			_, region := namedPageRegion(img.Filename)
			entries = append(entries, scorer.Entry{Path: path, Page: img.Page, Region: region})
		}
		return entries, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var entries []scorer.Entry
	for _, f := range files {
		if f.IsDir() || !utils.IsSupportedImage(f.Name()) {
			continue
		}
		page, region := namedPageRegion(f.Name())
		entries = append(entries, scorer.Entry{Path: filepath.Join(dir, f.Name()), Page: page, Region: region})
	}
	return entries, nil
}

func namedPageRegion(name string) (int, int) {
	m := regionName.FindStringSubmatch(name)
	if m == nil {
		return 0, 0
	}
	page, _ := strconv.Atoi(m[1])
	region, _ := strconv.Atoi(m[2])
	return page, region
}

func printRanking(w io.Writer, r scorer.Ranking) {
	_, _ = fmt.Fprintf(w, "Likely images: %d\nLikely text regions: %d\nErrors: %d\n",
		len(r.LikelyImages), len(r.LikelyText), len(r.Errors))

	if len(r.LikelyImages) > 0 {
		_, _ = fmt.Fprintln(w, "\nTop likely images:")
		for i, e := range r.LikelyImages[:min(10, len(r.LikelyImages))] {
			_, _ = fmt.Fprintf(w, "%2d. %s  page %d, region %d, score %d, %dx%d\n",
				i+1, filepath.Base(e.Path), e.Page, e.Region, e.Result.Score, e.Result.Width, e.Result.Height)
		}
	}
	for _, e := range r.Errors {
		_, _ = fmt.Fprintf(w, "   %s: %s\n", filepath.Base(e.Path), e.Result.Error)
	}

	breakdown := r.PageBreakdown()
	pages := make([]int, 0, len(breakdown))
	for p := range breakdown {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	if len(pages) > 0 {
		_, _ = fmt.Fprintln(w, "\nPage breakdown:")
	}
	for _, p := range pages {
		c := breakdown[p]
		_, _ = fmt.Fprintf(w, "Page %d: %d likely images, %d likely text regions\n", p, c[0], c[1])
	}
}

// writeFiltered copies the selected images and writes manifest.json beside them.
func writeFiltered(dir string, m scorer.Manifest) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	for _, e := range m.Images {
		if err := utils.CopyFile(e.SourcePath, filepath.Join(dir, e.Filename)); err != nil {
			slog.Warn("Failed to copy filtered image", "path", e.SourcePath, "error", err)
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o600)
}
