package document

// ElementKind tags a partitioned element.
type ElementKind int

const (
	ElementText ElementKind = iota
	ElementImage
	ElementTable
)

func (k ElementKind) String() string {
	switch k {
	case ElementImage:
		return "image"
	case ElementTable:
		return "table"
	default:
		return "text"
	}
}

// Element is a typed unit returned by a document partitioner. Untyped
// service metadata is converted into these fields once, at the boundary.
type Element struct {
	Kind        ElementKind
	Category    string // service category, e.g. "NarrativeText", "Image", "Table"
	Text        string
	Page        int
	Coordinates *BBox
	ImageBase64 string
	ImageMIME   string
}

// HasImagePayload reports whether the element carries an encoded image.
func (e Element) HasImagePayload() bool { return e.ImageBase64 != "" }
