package partition

import (
	"log/slog"
	"math"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/document"
)

// ConvertElements converts decoded service elements. Entries that are not
// usable are logged and dropped.
func ConvertElements(raw []map[string]any) []document.Element {
	out := make([]document.Element, 0, len(raw))
	for i, m := range raw {
		e, ok := FromMap(m)
		if !ok {
			slog.Warn("Skipping malformed partition element", "index", i)
			continue
		}
		out = append(out, e)
	}
	return out
}

// FromMap converts one untyped service element. It reports false when the
// element has neither text nor an image payload.
func FromMap(m map[string]any) (document.Element, bool) {
	category, _ := m["type"].(string)
	text, _ := m["text"].(string)
	meta, _ := m["metadata"].(map[string]any)

	e := document.Element{
		Kind:     kindOf(category),
		Category: category,
		Text:     text,
	}
	if meta != nil {
		e.Page = intValue(meta["page_number"])
		e.ImageBase64, _ = meta["image_base64"].(string)
		e.ImageMIME, _ = meta["image_mime_type"].(string)
		if coords, ok := meta["coordinates"].(map[string]any); ok {
			e.Coordinates = bboxFromPoints(coords["points"])
		}
	}
	if e.ImageBase64 != "" && e.Kind == document.ElementText {
		e.Kind = document.ElementImage
	}
	if strings.TrimSpace(e.Text) == "" && e.ImageBase64 == "" {
		return document.Element{}, false
	}
	return e, true
}

func kindOf(category string) document.ElementKind {
	switch category {
	case "Image", "Picture", "Figure":
		return document.ElementImage
	case "Table":
		return document.ElementTable
	default:
		return document.ElementText
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// bboxFromPoints bounds a polygon given as [[x, y], ...].
func bboxFromPoints(v any) *document.BBox {
	pts, ok := v.([]any)
	if !ok || len(pts) == 0 {
		return nil
	}
	b := document.BBox{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
	for _, p := range pts {
		xy, ok := p.([]any)
		if !ok || len(xy) != 2 {
			return nil
		}
		x, okx := xy[0].(float64)
		y, oky := xy[1].(float64)
		if !okx || !oky {
			return nil
		}
		b.X1, b.Y1 = math.Min(b.X1, x), math.Min(b.Y1, y)
		b.X2, b.Y2 = math.Max(b.X2, x), math.Max(b.Y2, y)
	}
	return &b
}
