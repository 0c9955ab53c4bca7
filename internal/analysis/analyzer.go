// Package analysis inspects a single PDF page and recommends how to
// extract it: its text block layout, embedded images, the questions and
// clinical vocabulary its elements contain, and the strategy that follows.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/partition"
	"github.com/MeKo-Tech/vistext/internal/pdf"
)

// Approach is the recommended extraction approach for a page.
type Approach int

const (
	// ApproachStandard runs the regular pipeline.
	ApproachStandard Approach = iota
	// ApproachImageFocused favours embedded and detected images.
	ApproachImageFocused
	// ApproachQuestionFocused favours splitting the text into questions.
	ApproachQuestionFocused
)

func (a Approach) String() string {
	switch a {
	case ApproachImageFocused:
		return "image_focused"
	case ApproachQuestionFocused:
		return "question_focused"
	default:
		return "standard"
	}
}

// MarshalText encodes the approach by name.
func (a Approach) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Level grades confidence and complexity.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelHigh:
		return "high"
	default:
		return "medium"
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Config holds the thresholds and vocabularies of the analyzer.
type Config struct {
	// ConceptKeywords mark short headings that name a clinical concept.
	ConceptKeywords []string `mapstructure:"concept_keywords" yaml:"concept_keywords" json:"concept_keywords"`
	// MedicalTerms are counted once each when present on the page.
	MedicalTerms []string `mapstructure:"medical_terms" yaml:"medical_terms" json:"medical_terms"`

	MaxConceptLength  int `mapstructure:"max_concept_length" yaml:"max_concept_length" json:"max_concept_length"`
	MinQuestionLength int `mapstructure:"min_question_length" yaml:"min_question_length" json:"min_question_length"`
	MaxQuestionLength int `mapstructure:"max_question_length" yaml:"max_question_length" json:"max_question_length"`
	QuestionPreview   int `mapstructure:"question_preview" yaml:"question_preview" json:"question_preview"`

	// SplitBalance is the smaller-to-larger ratio of left and right text
	// above which a page is treated as a two-page spread.
	SplitBalance       float64 `mapstructure:"split_balance" yaml:"split_balance" json:"split_balance"`
	ImageHeavy         int     `mapstructure:"image_heavy" yaml:"image_heavy" json:"image_heavy"`
	RichElements       int     `mapstructure:"rich_elements" yaml:"rich_elements" json:"rich_elements"`
	ManyQuestions      int     `mapstructure:"many_questions" yaml:"many_questions" json:"many_questions"`
	DenseMedicalTerms  int     `mapstructure:"dense_medical_terms" yaml:"dense_medical_terms" json:"dense_medical_terms"`
	HighComplexityFrom int     `mapstructure:"high_complexity_from" yaml:"high_complexity_from" json:"high_complexity_from"`
}

// DefaultConfig returns the thresholds used for nursing question books.
func DefaultConfig() Config {
	return Config{
		ConceptKeywords: []string{"concept", "disorder", "disease", "syndrome", "condition"},
		MedicalTerms: []string{
			"patient", "diagnosis", "treatment", "symptom", "medication", "nursing",
			"assessment", "intervention", "outcome", "care plan", "laboratory",
			"vital signs", "blood pressure", "heart rate", "respiratory", "cardiac",
			"neurological", "gastrointestinal",
		},
		MaxConceptLength:   200,
		MinQuestionLength:  20,
		MaxQuestionLength:  500,
		QuestionPreview:    200,
		SplitBalance:       0.3,
		ImageHeavy:         3,
		RichElements:       10,
		ManyQuestions:      2,
		DenseMedicalTerms:  5,
		HighComplexityFrom: 3,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.MinQuestionLength < 0 || c.MaxQuestionLength <= c.MinQuestionLength {
		return fmt.Errorf("invalid question length bounds: %d..%d", c.MinQuestionLength, c.MaxQuestionLength)
	}
	if c.SplitBalance < 0 || c.SplitBalance > 1 {
		return fmt.Errorf("split_balance must be in [0,1], got %.2f", c.SplitBalance)
	}
	if c.QuestionPreview <= 0 || c.MaxConceptLength <= 0 {
		return errors.New("question_preview and max_concept_length must be positive")
	}
	if c.HighComplexityFrom < 1 {
		return fmt.Errorf("high_complexity_from must be at least 1, got %d", c.HighComplexityFrom)
	}
	return nil
}

// Structure describes the physical layout of the page.
type Structure struct {
	Width           float64             `json:"width"`
	Height          float64             `json:"height"`
	Area            float64             `json:"area"`
	TextBlocks      []pdf.TextBlock     `json:"text_blocks"`
	TotalTextBlocks int                 `json:"total_text_blocks"`
	EmbeddedImages  int                 `json:"embedded_images"`
	Assets          []document.AssetRef `json:"embedded_assets"`
	Layout          pdf.ColumnSplit     `json:"layout_analysis"`
}

// Finding is an element worth a second look.
type Finding struct {
	Text     string `json:"text"`
	Category string `json:"type"`
	// QuestionType and Confidence come from the classifier and are only
	// set on potential questions.
	QuestionType string  `json:"question_type,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// Content summarises the partitioned elements of the page.
type Content struct {
	TotalElements      int            `json:"total_elements"`
	ContentTypes       map[string]int `json:"content_types"`
	PotentialConcepts  []Finding      `json:"potential_concepts"`
	PotentialQuestions []Finding      `json:"potential_questions"`
	MedicalTerms       []string       `json:"medical_terms"`
}

// Strategy is the extraction recommendation for the page.
type Strategy struct {
	Approach        Approach `json:"recommended_approach"`
	Confidence      Level    `json:"confidence"`
	Reasons         []string `json:"reasons"`
	SpecialHandling []string `json:"special_handling"`
	Complexity      Level    `json:"estimated_complexity"`
}

// Report is the full analysis of one page. A section that failed carries
// its error instead of its result; the strategy uses whatever succeeded.
type Report struct {
	File           string     `json:"pdf_file"`
	Page           int        `json:"pdf_page"`
	Timestamp      time.Time  `json:"timestamp"`
	Structure      *Structure `json:"pdf_structure,omitempty"`
	StructureError string     `json:"pdf_structure_error,omitempty"`
	Content        *Content   `json:"content_structure,omitempty"`
	ContentError   string     `json:"content_structure_error,omitempty"`
	Strategy       Strategy   `json:"extraction_strategy"`
}

// LayoutSource reads positioned text blocks.
type LayoutSource interface {
	Layout(path string, page int) (*pdf.PageLayout, error)
}

// AssetSource lists the images embedded in pages.
type AssetSource interface {
	Extract(path string, pages []int) ([]document.EmbeddedAsset, error)
}

// Analyzer inspects single pages.
type Analyzer struct {
	cfg         Config
	layout      LayoutSource
	assets      AssetSource
	partitioner partition.Partitioner
	options     partition.Options
	classifier  *classifier.Classifier
}

// New creates an analyzer. A nil classifier leaves potential questions
// untyped.
func New(cfg Config, layout LayoutSource, assets AssetSource, p partition.Partitioner, opts partition.Options, c *classifier.Classifier) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if layout == nil || assets == nil || p == nil {
		return nil, errors.New("layout, asset and partition sources are required")
	}
	return &Analyzer{cfg: cfg, layout: layout, assets: assets, partitioner: p, options: opts, classifier: c}, nil
}

// Analyze inspects one page. Failures of the structure or content section
// are recorded in the report; only a cancelled context is returned as an
// error.
func (a *Analyzer) Analyze(ctx context.Context, path string, page int) (*Report, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}
	report := &Report{File: path, Page: page, Timestamp: time.Now().UTC()}

	structure, err := a.structure(path, page)
	if err != nil {
		slog.Warn("Page structure analysis failed", "page", page, "error", err)
		report.StructureError = err.Error()
	} else {
		report.Structure = structure
	}

	content, err := a.content(ctx, path, page)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		slog.Warn("Page content analysis failed", "page", page, "error", err)
		report.ContentError = err.Error()
	} else {
		report.Content = content
	}

	report.Strategy = DetermineStrategy(a.cfg, report.Structure, report.Content)
	slog.Debug("Page analyzed", "page", page,
		"approach", report.Strategy.Approach.String(), "complexity", report.Strategy.Complexity.String())
	return report, nil
}

func (a *Analyzer) structure(path string, page int) (*Structure, error) {
	layout, err := a.layout.Layout(path, page)
	if err != nil {
		return nil, err
	}
	assets, err := a.assets.Extract(path, []int{page})
	if err != nil {
		return nil, err
	}

	s := &Structure{
		Width:           layout.Width,
		Height:          layout.Height,
		Area:            layout.Width * layout.Height,
		TextBlocks:      layout.Blocks,
		TotalTextBlocks: len(layout.Blocks),
		Assets:          make([]document.AssetRef, 0, len(assets)),
		Layout:          layout.Split(),
	}
	for _, asset := range assets {
		if asset.Page == page {
			s.Assets = append(s.Assets, asset.Ref())
		}
	}
	s.EmbeddedImages = len(s.Assets)
	return s, nil
}

func (a *Analyzer) content(ctx context.Context, path string, page int) (*Content, error) {
	opts := a.options
	opts.Pages = strconv.Itoa(page)
	elements, err := a.partitioner.Partition(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	// Remote partitioners return the whole document.
	var onPage []document.Element
	for _, e := range elements {
		if e.Page == page {
			onPage = append(onPage, e)
		}
	}
	return a.summarize(onPage), nil
}

func (a *Analyzer) summarize(elements []document.Element) *Content {
	c := &Content{
		TotalElements:      len(elements),
		ContentTypes:       make(map[string]int),
		PotentialConcepts:  []Finding{},
		PotentialQuestions: []Finding{},
		MedicalTerms:       []string{},
	}

	var all strings.Builder
	for _, e := range elements {
		category := e.Category
		if category == "" {
			category = e.Kind.String()
		}
		c.ContentTypes[category]++

		text := strings.TrimSpace(e.Text)
		all.WriteString(strings.ToLower(text))
		all.WriteByte(' ')
		length := len([]rune(text))

		if isHeading(category) && length < a.cfg.MaxConceptLength && containsAny(strings.ToLower(text), a.cfg.ConceptKeywords) {
			c.PotentialConcepts = append(c.PotentialConcepts, Finding{Text: text, Category: category})
		}
		if looksLikeQuestion(text) && length > a.cfg.MinQuestionLength && length < a.cfg.MaxQuestionLength {
			f := Finding{Text: truncate(text, a.cfg.QuestionPreview), Category: category}
			if a.classifier != nil {
				res := a.classifier.Classify(text, false)
				f.QuestionType = res.Type.String()
				f.Confidence = res.Confidence
			}
			c.PotentialQuestions = append(c.PotentialQuestions, f)
		}
	}

	lower := all.String()
	for _, term := range a.cfg.MedicalTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			c.MedicalTerms = append(c.MedicalTerms, term)
		}
	}
	return c
}

// DetermineStrategy recommends an extraction approach from whichever
// sections are available.
func DetermineStrategy(cfg Config, s *Structure, c *Content) Strategy {
	st := Strategy{
		Approach:        ApproachStandard,
		Confidence:      LevelMedium,
		Reasons:         []string{},
		SpecialHandling: []string{},
		Complexity:      LevelMedium,
	}

	if s != nil {
		left, right := s.Layout.LeftText, s.Layout.RightText
		if left > 0 && right > 0 && float64(min(left, right))/float64(max(left, right)) > cfg.SplitBalance {
			st.SpecialHandling = append(st.SpecialHandling, "Split extraction needed for left/right pages")
			st.Complexity = LevelHigh
		}
		if s.EmbeddedImages > cfg.ImageHeavy {
			st.SpecialHandling = append(st.SpecialHandling, "Image-heavy page - use comprehensive image extraction")
			st.Approach = ApproachImageFocused
		}
	}

	if c != nil {
		if c.TotalElements > cfg.RichElements {
			st.Reasons = append(st.Reasons, "Rich structured content available")
			st.Confidence = LevelHigh
		}
		if n := len(c.PotentialQuestions); n > cfg.ManyQuestions {
			st.SpecialHandling = append(st.SpecialHandling, fmt.Sprintf("Multiple questions detected (%d)", n))
			st.Approach = ApproachQuestionFocused
		}
		if len(c.MedicalTerms) > cfg.DenseMedicalTerms {
			st.Reasons = append(st.Reasons, "High medical terminology density")
			st.Confidence = LevelHigh
		}
	}

	switch n := len(st.SpecialHandling); {
	case n == 0:
		st.Complexity = LevelLow
	case n >= cfg.HighComplexityFrom:
		st.Complexity = LevelHigh
	}
	return st
}

func isHeading(category string) bool {
	switch category {
	case "Title", "Header", "NarrativeText":
		return true
	}
	return false
}

func looksLikeQuestion(text string) bool {
	return strings.Contains(text, "?") || strings.HasSuffix(text, ":")
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
