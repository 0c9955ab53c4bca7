package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MeKo-Tech/vistext/internal/common"
	"github.com/MeKo-Tech/vistext/internal/detector"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/metrics"
	"github.com/MeKo-Tech/vistext/internal/pdf"
	"github.com/MeKo-Tech/vistext/internal/store"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/MeKo-Tech/vistext/internal/validation"
)

// InputError reports a document that cannot be processed at all. No output
// is written when Run returns one.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("input %s: %v", e.Path, e.Err) }

func (e *InputError) Unwrap() error { return e.Err }

// run accumulates the collections of one document.
type run struct {
	p      *Pipeline
	out    *store.Store
	pages  []*document.Page
	images []*document.ExtractedImage
	topics []*document.QuestionBlock
	failed int
}

// Run processes the document at path. Pages are handled one at a time and
// per-page failures are logged and skipped. ctx is checked between pages
// and before the partitioning call.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	src, cleanup, err := pdf.Decrypt(path, p.cfg.Credentials)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer cleanup()

	raster, err := p.opener(src, p.cfg.DPI)
	if err != nil {
		return nil, &InputError{Path: path, Err: fmt.Errorf("open for rendering: %w", err)}
	}
	defer func() { _ = raster.Close() }()

	pages, err := pdf.SelectPages(p.cfg.PageRange, raster.PageCount())
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	out, err := store.Open(p.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	r := &run{p: p, out: out}
	stages := &common.StageTimes{}

	slog.Info("Extraction started", "file", path, "pages", len(pages), "dpi", p.cfg.DPI)
	p.progress.OnStart(len(pages))
	stop := stages.Track("pages")
	for i, n := range pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction interrupted before page %d: %w", n, err)
		}
		if err := r.page(raster, n); err != nil {
			r.failed++
			slog.Warn("Skipping page", "page", n, "error", err)
			p.progress.OnPageError(n, err)
		}
		p.progress.OnPage(i+1, len(pages))
	}
	stop()

	if p.cfg.ExtractEmbedded {
		p.progress.OnStage("assets")
		stop = stages.Track("assets")
		r.embedded(src, pages)
		stop()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction interrupted before partitioning: %w", err)
	}
	p.progress.OnStage("partition")
	stop = stages.Track("partition")
	elements, err := p.partition(ctx, src)
	if err != nil {
		return nil, err
	}
	r.elements(inPages(elements, pages))
	stop()

	p.progress.OnStage("associate")
	stop = stages.Track("associate")
	stats := p.Associator.Associate(r.topics, r.images)
	report := validation.Build(r.topics, r.images)
	stop()

	res := &Result{
		Source:       path,
		OutputDir:    out.Dir(),
		Pages:        pages,
		PageInfo:     r.pages,
		Images:       r.images,
		Topics:       r.topics,
		Report:       report,
		Association:  stats,
		SkippedPages: r.failed,
		Stages:       stages,
	}
	stop = stages.Track("persist")
	if err := r.persist(ctx, res); err != nil {
		metrics.StageFailed(metrics.StagePersist)
		return nil, err
	}
	stop()
	res.Duration = time.Since(start)
	res.Memory = common.CurrentMemStats()

	slog.Info("Extraction finished",
		"images", len(res.Images),
		"topics", len(res.Topics),
		"links", stats.Links,
		"verdict", report.Verdict(),
		"duration", res.Duration.Round(time.Millisecond))
	p.progress.OnComplete()
	return res, nil
}

// observedLocator counts locator failures; the detector itself degrades
// to detection without text suppression.
type observedLocator struct {
	detector.TextLocator
}

func (o observedLocator) LocateTextBoxes(img image.Image) ([]document.TextBox, error) {
	boxes, err := o.TextLocator.LocateTextBoxes(img)
	if err != nil {
		metrics.StageFailed(metrics.StageLocate)
	}
	return boxes, err
}

func (r *run) page(raster PageRasterizer, n int) error {
	start := time.Now()
	page, err := raster.Rasterize(n)
	if err != nil {
		metrics.StageFailed(metrics.StageRasterize)
		return fmt.Errorf("rasterize: %w", err)
	}
	defer page.Release()
	r.pages = append(r.pages, page.Meta())

	var loc detector.TextLocator
	if r.p.locator != nil {
		loc = observedLocator{r.p.locator}
	}
	regions := r.p.Detector.DetectPage(page, loc)

	for _, reg := range regions {
		crop, err := r.p.Detector.Crop(page, reg)
		if err != nil {
			metrics.StageFailed(metrics.StageCrop)
			slog.Warn("Skipping region", "page", n, "region", reg.Rank, "error", err)
			continue
		}
		img := &document.ExtractedImage{
			Page:       n,
			Filename:   store.RegionFilename(n, reg.Rank, crop.Hash),
			Source:     document.SourceDetectedRegion,
			BBox:       document.BBoxFromRect(crop.Rect),
			Confidence: reg.Confidence,
			Hash:       crop.Hash,
			Pixels:     crop.Pixels,
		}
		if r.keep(img) {
			r.save(img)
		}
	}

	if r.p.cfg.OverlayDir != "" {
		r.overlay(page, regions)
	}
	metrics.PageProcessed(time.Since(start), len(regions))
	return nil
}

// keep scores img and reports whether it should be persisted.
func (r *run) keep(img *document.ExtractedImage) bool {
	res := r.p.Scorer.ScoreImage(img.Pixels)
	metrics.ImageScored(res.Score)
	img.Score = res.Quality()
	if res.LikelyImage || r.p.cfg.KeepUnlikely {
		return true
	}
	slog.Debug("Dropping unlikely image", "page", img.Page, "file", img.Filename, "score", res.Score)
	return false
}

// save writes img under the next image id.
func (r *run) save(img *document.ExtractedImage) {
	path, err := r.out.SaveImage(img.Filename, img.Pixels)
	if err != nil {
		metrics.StageFailed(metrics.StageStore)
		slog.Warn("Skipping image that could not be stored", "page", img.Page, "file", img.Filename, "error", err)
		return
	}
	r.append(img, path)
}

func (r *run) append(img *document.ExtractedImage, path string) {
	b := img.Pixels.Bounds()
	img.ID = document.ImageID(len(r.images) + 1)
	img.Path = path
	img.Width, img.Height = b.Dx(), b.Dy()
	img.Pixels = nil
	r.images = append(r.images, img)
	metrics.ImageKept(img.Source)
}

func (r *run) overlay(page *document.Page, regions []document.CandidateRegion) {
	vis := detector.VisualizeRegions(page.Pixels, regions, detector.VisualizeOptions{})
	path := filepath.Join(r.p.cfg.OverlayDir, fmt.Sprintf("page_%d_overlay.png", page.Number))
	if err := utils.SavePNG(path, vis); err != nil {
		slog.Warn("Could not write overlay", "page", page.Number, "error", err)
	}
}

func (r *run) embedded(src string, pages []int) {
	assets, err := r.p.assets.Extract(src, pages)
	if err != nil {
		metrics.StageFailed(metrics.StageAssets)
		slog.Warn("Embedded image extraction failed", "error", err)
		return
	}
	for _, a := range assets {
		if meta := r.pageMeta(a.Page); meta != nil {
			meta.Assets = append(meta.Assets, a.Ref())
		}
		hash := utils.ContentHash(a.Pixels)
		img := &document.ExtractedImage{
			Page:        a.Page,
			Filename:    store.EmbeddedFilename(a.Page, a.Index, hash),
			Source:      document.SourceEmbedded,
			ElementType: "Image",
			BBox:        document.BBoxFromRect(a.Pixels.Bounds()),
			Confidence:  1,
			Hash:        hash,
			Pixels:      a.Pixels,
		}
		if r.keep(img) {
			r.save(img)
		}
	}
	slog.Debug("Embedded images processed", "found", len(assets))
}

// pageMeta returns the recorded metadata of page n, or nil when the page
// could not be rasterized.
func (r *run) pageMeta(n int) *document.Page {
	for _, p := range r.pages {
		if p.Number == n {
			return p
		}
	}
	return nil
}

// partition runs the configured partitioner and, when that is a remote
// service, falls back to local text extraction.
func (p *Pipeline) partition(ctx context.Context, src string) ([]document.Element, error) {
	opts := p.cfg.Partition.Options
	opts.Pages = p.cfg.PageRange

	elements, err := p.partitioner.Partition(ctx, src, opts)
	if err == nil {
		return elements, nil
	}
	metrics.StageFailed(metrics.StagePartition)
	if p.fallback == nil || ctx.Err() != nil {
		return nil, fmt.Errorf("partition document: %w", err)
	}
	slog.Warn("Partitioning service failed, falling back to local text extraction", "error", err)
	elements, ferr := p.fallback.Partition(ctx, src, opts)
	if ferr != nil {
		return nil, fmt.Errorf("partition document: %w (local fallback: %w)", err, ferr)
	}
	return elements, nil
}

// inPages drops elements outside the selected pages. Elements without a
// page number are kept.
func inPages(elements []document.Element, pages []int) []document.Element {
	selected := make(map[int]bool, len(pages))
	for _, n := range pages {
		selected[n] = true
	}
	out := make([]document.Element, 0, len(elements))
	for _, e := range elements {
		if e.Page == 0 || selected[e.Page] {
			out = append(out, e)
		}
	}
	return out
}

// elements stores the images carried by elements first, so every text block
// sees all pictures of its page, then classifies the text.
func (r *run) elements(elements []document.Element) {
	for _, e := range elements {
		if !e.HasImagePayload() {
			continue
		}
		id := document.ImageID(len(r.images) + 1)
		pixels, path, err := r.out.SaveEncoded(id, e.ImageBase64)
		if err != nil {
			metrics.StageFailed(metrics.StageStore)
			slog.Warn("Skipping undecodable element image", "page", e.Page, "error", err)
			continue
		}
		img := &document.ExtractedImage{
			Page:        e.Page,
			Filename:    filepath.Base(path),
			Source:      document.SourcePartition,
			ElementType: e.Category,
			BBox:        e.Coordinates,
			Confidence:  1,
			Hash:        utils.ContentHash(pixels),
			Pixels:      pixels,
		}
		res := r.p.Scorer.ScoreImage(pixels)
		metrics.ImageScored(res.Score)
		img.Score = res.Quality()
		r.append(img, path)
	}

	withImages := make(map[int]bool)
	for _, img := range r.images {
		withImages[img.Page] = true
	}
	for _, e := range elements {
		if e.Kind == document.ElementImage || e.HasImagePayload() {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(e.Text)) < r.p.cfg.MinTextLength {
			continue
		}
		topic := r.p.Classifier.NewQuestionBlock(document.TopicID(len(r.topics)+1), e.Page, e.Text, withImages[e.Page])
		metrics.TopicClassified(topic.Type.String())
		r.topics = append(r.topics, topic)
	}
	slog.Debug("Elements classified", "elements", len(elements), "topics", len(r.topics))
}

func (r *run) persist(ctx context.Context, res *Result) error {
	if err := r.out.WriteAll(res.Images, res.Topics, res.Report); err != nil {
		return err
	}
	if r.p.cfg.ByPage {
		if _, err := r.out.WritePageFolders(res.PageInfo, res.Images); err != nil {
			return err
		}
	}
	if r.p.cfg.SQLitePath == "" {
		return nil
	}
	db, err := store.OpenDB(r.p.cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	res.RunID, err = db.SaveRun(ctx, res.Source, res.Images, res.Topics, res.Report)
	return err
}
