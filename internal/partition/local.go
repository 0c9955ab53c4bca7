package partition

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/pdf"
)

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Local partitions from the PDF's own text layer. It yields text elements
// only; images come from the rasterizer and the embedded-asset extractor.
type Local struct {
	text *pdf.TextExtractor
}

// NewLocal creates a local partitioner.
func NewLocal() *Local {
	return &Local{text: pdf.NewTextExtractor(0)}
}

// Partition splits every selected page into blank-line separated blocks.
func (l *Local) Partition(ctx context.Context, path string, opts Options) ([]document.Element, error) {
	pages, err := l.text.ExtractText(path, opts.Pages)
	if err != nil {
		return nil, fmt.Errorf("local partition: %w", err)
	}
	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var out []document.Element
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, block := range SplitBlocks(pages[n].Text, opts) {
			out = append(out, document.Element{
				Kind:     document.ElementText,
				Category: categoryOf(block),
				Text:     block,
				Page:     n,
			})
		}
	}
	return out, nil
}

// SplitBlocks splits text on blank lines. With by_title chunking a lone
// heading line is joined to the block after it; blocks longer than
// MaxCharacters are cut with Overlap characters repeated.
func SplitBlocks(text string, opts Options) []string {
	var blocks []string
	for _, b := range blankLine.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}

	if opts.ChunkingStrategy == "by_title" {
		merged := make([]string, 0, len(blocks))
		for i := 0; i < len(blocks); i++ {
			if isTitle(blocks[i]) && i+1 < len(blocks) {
				merged = append(merged, blocks[i]+"\n"+blocks[i+1])
				i++
				continue
			}
			merged = append(merged, blocks[i])
		}
		blocks = merged
	}

	if opts.MaxCharacters <= 0 {
		return blocks
	}
	var out []string
	for _, b := range blocks {
		out = append(out, cut([]rune(b), opts.MaxCharacters, opts.Overlap)...)
	}
	return out
}

func cut(r []rune, size, overlap int) []string {
	if len(r) <= size {
		return []string{string(r)}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	var out []string
	for start := 0; start < len(r); start += size - overlap {
		end := min(start+size, len(r))
		out = append(out, strings.TrimSpace(string(r[start:end])))
		if end == len(r) {
			break
		}
	}
	return out
}

// isTitle reports a single short line, such as a chapter or subject heading.
func isTitle(block string) bool {
	return !strings.Contains(block, "\n") && len([]rune(block)) < 50
}

func categoryOf(block string) string {
	if isTitle(block) {
		return "Title"
	}
	return "NarrativeText"
}
