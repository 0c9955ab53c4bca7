package pdf

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
)

// PageText is the vector text layer of one page.
type PageText struct {
	Page      int         `json:"page_number"`
	Text      string      `json:"text"`
	WordCount int         `json:"word_count"`
	Quality   TextQuality `json:"quality"`
}

// TextQuality grades how usable a text layer is. Scanned books often carry
// no layer or an OCR layer full of noise.
type TextQuality struct {
	Score        float64 `json:"score"`
	HasText      bool    `json:"has_text"`
	IsSearchable bool    `json:"is_searchable"`
}

// TextExtractor reads the vector text of PDF pages.
type TextExtractor struct {
	qualityThreshold float64
}

// NewTextExtractor creates an extractor; a non-positive threshold selects 0.5.
func NewTextExtractor(qualityThreshold float64) *TextExtractor {
	if qualityThreshold <= 0 {
		qualityThreshold = 0.5
	}
	return &TextExtractor{qualityThreshold: qualityThreshold}
}

// ExtractText returns the text of the selected pages keyed by page number.
// Pages that fail to parse are logged and left out.
func (e *TextExtractor) ExtractText(filename string, pageRange string) (map[int]*PageText, error) {
	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}
	pages, err := SelectPages(pageRange, reader.NumPage())
	if err != nil {
		return nil, err
	}

	results := make(map[int]*PageText, len(pages))
	for _, n := range pages {
		pt, err := e.extractPage(reader, n)
		if err != nil {
			slog.Warn("Skipping page text", "page", n, "error", err)
			continue
		}
		results[n] = pt
	}
	return results, nil
}

func (e *TextExtractor) extractPage(reader *pdf.Reader, n int) (pt *PageText, err error) {
	defer func() {
		// dslipak/pdf panics on some malformed content streams.
		if r := recover(); r != nil {
			pt, err = nil, fmt.Errorf("page %d: malformed content: %v", n, r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", n)
	}
	text := pageText(page)
	return &PageText{
		Page:      n,
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Quality:   assessTextQuality(text),
	}, nil
}

// pageText rebuilds the page's lines from glyph positions. Glyphs sharing a
// baseline form a row; rows are read top to bottom and glyphs left to right.
// A space is inserted where glyph runs are separated horizontally and an
// empty line where rows are separated by more than paragraphGap line
// heights. Without positioned glyphs it falls back to the plain-text stream.
func pageText(page pdf.Page) string {
	rows := glyphRows(page.Content().Text)
	if len(rows) == 0 {
		plain, _ := page.GetPlainText(make(map[string]*pdf.Font))
		return plain
	}

	var sb strings.Builder
	for i, row := range rows {
		size := row.size()
		if i > 0 && rows[i-1].y-row.y > paragraphGap*size {
			sb.WriteString("\n")
		}
		sb.WriteString(row.line(size))
		sb.WriteString("\n")
	}
	return sb.String()
}

const paragraphGap = 1.8

type glyphRow struct {
	y      float64
	glyphs []pdf.Text
}

// glyphRows groups glyphs by rounded baseline, highest row first. PDF y
// grows upwards.
func glyphRows(texts []pdf.Text) []glyphRow {
	byY := make(map[int64]*glyphRow)
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		key := int64(math.Round(t.Y))
		r, ok := byY[key]
		if !ok {
			r = &glyphRow{y: float64(key)}
			byY[key] = r
		}
		r.glyphs = append(r.glyphs, t)
	}

	rows := make([]glyphRow, 0, len(byY))
	for _, r := range byY {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	return rows
}

func (r glyphRow) size() float64 {
	if s := r.glyphs[0].FontSize; s > 0 {
		return s
	}
	return 12
}

// line joins the row's glyphs. Content stream order is kept for glyphs at
// the same x, which happens when the font carries no width table.
func (r glyphRow) line(size float64) string {
	sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })

	var line strings.Builder
	for j, t := range r.glyphs {
		if j > 0 {
			prev := r.glyphs[j-1]
			if t.X-(prev.X+prev.W) > 0.2*size && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				line.WriteByte(' ')
			}
		}
		line.WriteString(t.S)
	}
	return strings.TrimSpace(line.String())
}

func assessTextQuality(text string) TextQuality {
	hasText := strings.TrimSpace(text) != ""
	words := len(strings.Fields(text))

	score := 0.0
	if hasText {
		score += 0.4
		if words > 5 {
			score += 0.3
		}
		if hasReasonableCharacterDistribution(text) {
			score += 0.3
		}
	}
	return TextQuality{Score: min(score, 1), HasText: hasText, IsSearchable: words > 0}
}

// hasReasonableCharacterDistribution requires at least half of the
// non-space runes to be letters or digits.
func hasReasonableCharacterDistribution(text string) bool {
	var alnum, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	return total > 0 && float64(alnum)/float64(total) >= 0.5
}

// IsQualityAcceptable reports whether pt meets the threshold.
func (e *TextExtractor) IsQualityAcceptable(pt *PageText) bool {
	return pt != nil && pt.Quality.Score >= e.qualityThreshold
}
