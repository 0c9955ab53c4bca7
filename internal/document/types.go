// Package document holds the data model shared by the detection,
// classification and association stages.
package document

import (
	"encoding/json"
	"fmt"
	"image"
)

// Page is one rasterized document page. Pixels are owned by a single
// detector pass and dropped with Release before the next page is rendered.
// Assets lists the images natively embedded in the page.
type Page struct {
	Number int         `json:"page"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Assets []AssetRef  `json:"embedded_assets"`
	Pixels image.Image `json:"-"`
}

// AssetRef points at an embedded image object without holding its pixels.
type AssetRef struct {
	Index        int    `json:"index"`
	ObjectNumber int    `json:"object_number"`
	Name         string `json:"name,omitempty"`
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// NewPage wraps a rendered image as a page.
func NewPage(number int, img image.Image) *Page {
	p := &Page{Number: number, Pixels: img}
	if img != nil {
		b := img.Bounds()
		p.Width, p.Height = b.Dx(), b.Dy()
	}
	return p
}

// Release drops the pixel buffer.
func (p *Page) Release() { p.Pixels = nil }

// Meta returns a copy of the page without its pixels.
func (p *Page) Meta() *Page {
	return &Page{Number: p.Number, Width: p.Width, Height: p.Height, Assets: p.Assets}
}

// EmbeddedAsset is a natively embedded image pulled out of the document.
type EmbeddedAsset struct {
	Page         int
	Index        int
	ObjectNumber int
	Name         string
	Format       string
	Pixels       image.Image
}

// Ref returns the pixel-free reference stored on the page.
func (a EmbeddedAsset) Ref() AssetRef {
	ref := AssetRef{Index: a.Index, ObjectNumber: a.ObjectNumber, Name: a.Name, Format: a.Format}
	if a.Pixels != nil {
		b := a.Pixels.Bounds()
		ref.Width, ref.Height = b.Dx(), b.Dy()
	}
	return ref
}

// TextBox is a recognized glyph run on a rasterized page.
type TextBox struct {
	Rect       image.Rectangle `json:"rect"`
	Confidence float64         `json:"confidence"`
	Text       string          `json:"text"`
}

// CandidateRegion is a rectangle suspected of holding pictorial content.
// Confidence is the contour fill ratio; Rank is 1-based within the page.
type CandidateRegion struct {
	Rect       image.Rectangle `json:"rect"`
	Page       int             `json:"page"`
	Confidence float64         `json:"confidence"`
	Rank       int             `json:"rank"`
}

// StoredImage is a cropped candidate ready to be persisted.
type StoredImage struct {
	Rect   image.Rectangle
	Pixels image.Image
	Hash   string
}

// BBox is a serializable bounding box in page pixel coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// BBoxFromRect converts an integer rectangle.
func BBoxFromRect(r image.Rectangle) *BBox {
	return &BBox{X1: float64(r.Min.X), Y1: float64(r.Min.Y), X2: float64(r.Max.X), Y2: float64(r.Max.Y)}
}

// MarshalJSON writes the box as [x1, y1, x2, y2] like the downstream tooling expects.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON accepts the array form.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var arr [4]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("bbox: %w", err)
	}
	b.X1, b.Y1, b.X2, b.Y2 = arr[0], arr[1], arr[2], arr[3]
	return nil
}

// Image sources.
const (
	SourceDetectedRegion = "detected_region"
	SourceEmbedded       = "embedded"
	SourcePartition      = "partition"
)

// QualityScore mirrors the scorer output stored alongside an image.
type QualityScore struct {
	Score       int     `json:"score"`
	LikelyImage bool    `json:"likely_image"`
	Variance    float64 `json:"variance"`
	Brightness  float64 `json:"brightness"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// ExtractedImage is a persisted picture with its page metadata.
// Only the associator mutates AssociatedTopicID and AssociatedTopicIDs.
type ExtractedImage struct {
	ID                 string        `json:"id"`
	Page               int           `json:"page"`
	Filename           string        `json:"filename"`
	Path               string        `json:"path,omitempty"`
	Source             string        `json:"source"`
	ElementType        string        `json:"element_type,omitempty"`
	BBox               *BBox         `json:"bbox,omitempty"`
	Confidence         float64       `json:"confidence"`
	Hash               string        `json:"hash"`
	Width              int           `json:"width"`
	Height             int           `json:"height"`
	Score              *QualityScore `json:"score,omitempty"`
	AssociatedTopicID  *string       `json:"associated_topic_id"`
	AssociatedTopicIDs []string      `json:"associated_topic_ids,omitempty"`

	// Pixels is the transient payload; it is never serialized.
	Pixels image.Image `json:"-"`
}

// ImageID formats the n-th image id (1-based).
func ImageID(n int) string { return fmt.Sprintf("img_%04d", n) }

// TopicID formats the n-th topic id (1-based).
func TopicID(n int) string { return fmt.Sprintf("topic_%04d", n) }
