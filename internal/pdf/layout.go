package pdf

import (
	"fmt"
	"math"
	"strings"

	"github.com/dslipak/pdf"
)

// PageLayout is the positioned text of one page in PDF points, origin top
// left.
type PageLayout struct {
	Page   int         `json:"pdf_page"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Blocks []TextBlock `json:"text_blocks"`
}

// TextBlock is a run of consecutive lines sharing a left edge.
type TextBlock struct {
	BBox    [4]float64 `json:"bbox"`
	Preview string     `json:"text_preview"`
	Length  int        `json:"text_length"`
	Text    string     `json:"-"`
}

// ColumnSplit compares the blocks starting left and right of the page
// centre, which tells a two-up scan from a single page.
type ColumnSplit struct {
	LeftBlocks  int `json:"left_side_blocks"`
	RightBlocks int `json:"right_side_blocks"`
	LeftText    int `json:"left_side_text"`
	RightText   int `json:"right_side_text"`
}

const (
	previewLength = 100
	// columnGap splits a row where glyphs are further apart than this many
	// font sizes.
	columnGap = 3.0
	// blockIndent is how far, in font sizes, a line may start from the
	// block's left edge and still continue it.
	blockIndent = 2.0
)

// Layout returns the text blocks of one page.
func (e *TextExtractor) Layout(filename string, page int) (layout *PageLayout, err error) {
	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}
	if page < 1 || page > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, reader.NumPage())
	}

	defer func() {
		if r := recover(); r != nil {
			layout, err = nil, fmt.Errorf("page %d: malformed content: %v", page, r)
		}
	}()
	p := reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", page)
	}

	width, height := mediaBox(p.V)
	return &PageLayout{
		Page:   page,
		Width:  width,
		Height: height,
		Blocks: buildBlocks(glyphRows(p.Content().Text), height),
	}, nil
}

// Split counts blocks and characters on either side of the page centre.
func (l *PageLayout) Split() ColumnSplit {
	var s ColumnSplit
	mid := l.Width / 2
	for _, b := range l.Blocks {
		if b.BBox[0] < mid {
			s.LeftBlocks++
			s.LeftText += b.Length
		} else {
			s.RightBlocks++
			s.RightText += b.Length
		}
	}
	return s
}

// mediaBox reads the page size, following inherited attributes up the
// page tree. US Letter is assumed when none is set.
func mediaBox(v pdf.Value) (float64, float64) {
	for ; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			return math.Abs(box.Index(2).Float64() - box.Index(0).Float64()),
				math.Abs(box.Index(3).Float64() - box.Index(1).Float64())
		}
	}
	return 612, 792
}

type segment struct {
	x0, x1, y, size float64
	text            string
}

// segments cuts the row at column gaps.
func (r glyphRow) segments() []segment {
	size := r.size()
	r.line(size) // sorts the glyphs by x

	var out []segment
	var cur []pdf.Text
	flush := func() {
		if len(cur) == 0 {
			return
		}
		text := glyphRow{y: r.y, glyphs: cur}.line(size)
		if text != "" {
			s := segment{x0: cur[0].X, y: r.y, size: size, text: text}
			for _, g := range cur {
				s.x1 = max(s.x1, g.X+g.W)
			}
			if s.x1 <= s.x0 {
				// No width table; estimate half an em per character.
				s.x1 = s.x0 + 0.5*size*float64(len([]rune(text)))
			}
			out = append(out, s)
		}
		cur = nil
	}
	for i, g := range r.glyphs {
		if i > 0 {
			prev := r.glyphs[i-1]
			if g.X-(prev.X+prev.W) > columnGap*size {
				flush()
			}
		}
		cur = append(cur, g)
	}
	flush()
	return out
}

type openBlock struct {
	x0, x1, top, bottom, size float64
	lines                     []string
}

// buildBlocks groups row segments into blocks. A segment continues a block
// when it starts near the block's left edge and sits within paragraphGap
// line heights below the block's last line.
func buildBlocks(rows []glyphRow, height float64) []TextBlock {
	var blocks []*openBlock
	for _, row := range rows {
		for _, s := range row.segments() {
			var target *openBlock
			for _, b := range blocks {
				if b.bottom > s.y && b.bottom-s.y <= paragraphGap*s.size && math.Abs(b.x0-s.x0) <= blockIndent*s.size {
					target = b
				}
			}
			if target == nil {
				target = &openBlock{x0: s.x0, x1: s.x1, top: s.y, bottom: s.y, size: s.size}
				blocks = append(blocks, target)
			}
			target.x0 = min(target.x0, s.x0)
			target.x1 = max(target.x1, s.x1)
			target.bottom = s.y
			target.lines = append(target.lines, s.text)
		}
	}

	out := make([]TextBlock, 0, len(blocks))
	for _, b := range blocks {
		text := strings.TrimSpace(strings.Join(b.lines, " "))
		runes := []rune(text)
		preview := runes
		if len(preview) > previewLength {
			preview = preview[:previewLength]
		}
		out = append(out, TextBlock{
			BBox: [4]float64{
				b.x0,
				max(0, height-b.top-b.size),
				b.x1,
				max(0, height-b.bottom),
			},
			Preview: strings.TrimSpace(string(preview)),
			Length:  len(runes),
			Text:    text,
		})
	}
	return out
}
