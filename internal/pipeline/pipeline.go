// Package pipeline runs a document through region detection, embedded-image
// extraction, partitioning, classification and association, then persists
// the collections and their validation report.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/detector"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/ocr"
	"github.com/MeKo-Tech/vistext/internal/partition"
	"github.com/MeKo-Tech/vistext/internal/pdf"
	"github.com/MeKo-Tech/vistext/internal/scorer"
)

// DefaultMinTextLength is the shortest text element worth classifying.
const DefaultMinTextLength = 50

// Config holds configuration for a run and its components.
type Config struct {
	OutputDir       string
	PageRange       string
	DPI             float64
	KeepUnlikely    bool // keep accepted regions the scorer thinks are not pictures
	ExtractEmbedded bool
	MinTextLength   int
	OverlayDir      string // page overlays are written here when set
	SQLitePath      string // runs are also exported to SQLite when set
	ByPage          bool   // images are also copied into per-page folders
	Credentials     *pdf.Credentials

	Detector   detector.Config
	Scorer     scorer.Config
	Rules      classifier.Rules
	Associator associator.Config
	Partition  partition.Config
	OCR        ocr.Config
}

// DefaultConfig returns a default config with component defaults.
func DefaultConfig() Config {
	return Config{
		OutputDir:       "output",
		DPI:             pdf.DefaultDPI,
		ExtractEmbedded: true,
		MinTextLength:   DefaultMinTextLength,
		Detector:        detector.DefaultConfig(),
		Scorer:          scorer.DefaultConfig(),
		Rules:           classifier.DefaultRules(),
		Associator:      associator.DefaultConfig(),
		Partition:       partition.DefaultConfig(),
		OCR:             ocr.DefaultConfig(),
	}
}

// PageRasterizer renders 1-based pages of an opened document.
type PageRasterizer interface {
	PageCount() int
	Rasterize(page int) (*document.Page, error)
	Close() error
}

// RasterizerOpener opens path for rendering at dpi.
type RasterizerOpener func(path string, dpi float64) (PageRasterizer, error)

// AssetSource returns the natively embedded images of the given pages.
type AssetSource interface {
	Extract(path string, pages []int) ([]document.EmbeddedAsset, error)
}

func openFitz(path string, dpi float64) (PageRasterizer, error) {
	r, err := pdf.OpenRasterizer(path, dpi)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg         Config
	locator     detector.TextLocator
	partitioner partition.Partitioner
	assets      AssetSource
	opener      RasterizerOpener
	progress    ProgressCallback
}

// NewBuilder creates a builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithOutputDir sets where images and JSON files are written.
func (b *Builder) WithOutputDir(dir string) *Builder {
	if dir != "" {
		b.cfg.OutputDir = dir
	}
	return b
}

// WithPages restricts the run to a page range such as "88-92" or "1,3,5-7".
func (b *Builder) WithPages(pageRange string) *Builder {
	b.cfg.PageRange = pageRange
	return b
}

// WithDPI sets the rasterization resolution.
func (b *Builder) WithDPI(dpi float64) *Builder {
	if dpi > 0 {
		b.cfg.DPI = dpi
	}
	return b
}

// WithKeepUnlikely keeps every accepted region, not only likely pictures.
func (b *Builder) WithKeepUnlikely(keep bool) *Builder {
	b.cfg.KeepUnlikely = keep
	return b
}

// WithEmbedded toggles extraction of natively embedded images.
func (b *Builder) WithEmbedded(enabled bool) *Builder {
	b.cfg.ExtractEmbedded = enabled
	return b
}

// WithOverlayDir writes region overlays for every page into dir.
func (b *Builder) WithOverlayDir(dir string) *Builder {
	b.cfg.OverlayDir = dir
	return b
}

// WithSQLite also exports the run into the SQLite database at path.
func (b *Builder) WithSQLite(path string) *Builder {
	b.cfg.SQLitePath = path
	return b
}

// WithByPage also organizes the stored images into pages/page_NNN folders.
func (b *Builder) WithByPage(enabled bool) *Builder {
	b.cfg.ByPage = enabled
	return b
}

// WithCredentials sets passwords for encrypted documents.
func (b *Builder) WithCredentials(creds *pdf.Credentials) *Builder {
	b.cfg.Credentials = creds
	return b
}

// WithClassifierRules replaces the classification rules.
func (b *Builder) WithClassifierRules(rules classifier.Rules) *Builder {
	b.cfg.Rules = rules
	return b
}

// WithPartitionConfig replaces the partitioning configuration.
func (b *Builder) WithPartitionConfig(cfg partition.Config) *Builder {
	b.cfg.Partition = cfg
	return b
}

// WithTextLocator overrides the OCR text locator.
func (b *Builder) WithTextLocator(l detector.TextLocator) *Builder {
	b.locator = l
	return b
}

// WithPartitioner overrides the partitioner chosen from the config.
func (b *Builder) WithPartitioner(p partition.Partitioner) *Builder {
	b.partitioner = p
	return b
}

// WithAssetSource overrides the embedded-image extractor.
func (b *Builder) WithAssetSource(a AssetSource) *Builder {
	b.assets = a
	return b
}

// WithRasterizerOpener overrides how documents are opened for rendering.
func (b *Builder) WithRasterizerOpener(o RasterizerOpener) *Builder {
	b.opener = o
	return b
}

// WithProgressCallback sets the progress reporter.
func (b *Builder) WithProgressCallback(cb ProgressCallback) *Builder {
	b.progress = cb
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if b.cfg.OutputDir == "" {
		return errors.New("output directory is empty")
	}
	if b.cfg.DPI <= 0 {
		return fmt.Errorf("dpi must be > 0, got %.1f", b.cfg.DPI)
	}
	if b.cfg.MinTextLength < 0 {
		return fmt.Errorf("min text length must be >= 0, got %d", b.cfg.MinTextLength)
	}
	if b.cfg.PageRange != "" {
		if _, err := pdf.ParsePageRange(b.cfg.PageRange); err != nil {
			return err
		}
	}
	if b.partitioner == nil {
		if err := b.cfg.Partition.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline wires the engines to their collaborators.
type Pipeline struct {
	cfg         Config
	Detector    *detector.Detector
	Scorer      *scorer.Scorer
	Classifier  *classifier.Classifier
	Associator  *associator.Associator
	locator     detector.TextLocator
	partitioner partition.Partitioner
	fallback    partition.Partitioner
	assets      AssetSource
	opener      RasterizerOpener
	progress    ProgressCallback
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	det, err := detector.NewDetector(b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	sc, err := scorer.New(b.cfg.Scorer)
	if err != nil {
		return nil, fmt.Errorf("init scorer: %w", err)
	}
	cls, err := classifier.New(b.cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	assoc, err := associator.New(b.cfg.Associator)
	if err != nil {
		return nil, fmt.Errorf("init associator: %w", err)
	}

	p := &Pipeline{
		cfg:         b.cfg,
		Detector:    det,
		Scorer:      sc,
		Classifier:  cls,
		Associator:  assoc,
		locator:     b.locator,
		partitioner: b.partitioner,
		assets:      b.assets,
		opener:      b.opener,
		progress:    b.progress,
	}

	if p.locator == nil {
		tess, err := ocr.New(b.cfg.OCR)
		switch {
		case errors.Is(err, ocr.ErrOCRNotEnabled):
			slog.Info("OCR support not built in, regions are detected without text suppression")
		case err != nil:
			slog.Warn("OCR unavailable, regions are detected without text suppression", "error", err)
		default:
			p.locator = tess
		}
	}
	if p.partitioner == nil {
		if p.partitioner, err = partition.New(b.cfg.Partition); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("init partitioner: %w", err)
		}
	}
	if _, local := p.partitioner.(*partition.Local); !local {
		p.fallback = partition.NewLocal()
	}
	if p.assets == nil {
		p.assets = pdf.NewAssetExtractor(b.cfg.Credentials)
	}
	if p.opener == nil {
		p.opener = openFitz
	}
	if p.progress == nil {
		p.progress = NoOpProgressCallback{}
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases the text locator.
func (p *Pipeline) Close() error {
	if c, ok := p.locator.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
