package testutil

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestGeneratePageTextBoxes(t *testing.T) {
	cfg := DefaultPageConfig()
	img, boxes := GeneratePage(cfg)

	assert.Equal(t, PageSize.Width, img.Bounds().Dx())
	assert.Equal(t, PageSize.Height, img.Bounds().Dy())
	require.Len(t, boxes, len(cfg.Lines))
	for i, tb := range boxes {
		assert.Equal(t, cfg.Lines[i], tb.Text)
		assert.Equal(t, 13, tb.Rect.Dy())
		assert.Equal(t, 7*len(cfg.Lines[i]), tb.Rect.Dx())
	}
	assert.True(t, boxes[0].Rect.Max.Y <= boxes[1].Rect.Min.Y)
}

func TestDrawPictureFrameAndTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	DrawPicture(img, image.Rect(10, 10, 60, 60))

	assert.Equal(t, color.RGBA{20, 20, 20, 255}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{20, 20, 20, 255}, img.RGBAAt(59, 59))
	assert.NotEqual(t, img.RGBAAt(14, 14), img.RGBAAt(22, 14))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(61, 61))
}

func TestSaveAndLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "page.png")
	img := CreateNoiseImage(40, 30)
	SaveImage(t, img, path)

	loaded := LoadImage(t, path)
	assert.True(t, CompareImages(img, loaded, 0.0001))
	assert.False(t, CompareImages(img, CreateTestImage(40, 30, color.White), 0.01))
	assert.False(t, CompareImages(img, CreateTestImage(10, 10, color.White), 1))
}

func TestFixturesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	SaveFixtures(t, path, QuestionFixtures())
	assert.Equal(t, QuestionFixtures(), LoadFixtures(t, path))
}

func TestSampleElements(t *testing.T) {
	elems := SampleElements()
	require.Len(t, elems, 5)
	assert.True(t, elems[2].HasImagePayload())
	assert.Less(t, len(elems[0].Text), 50)
	assert.True(t, DirExists(t.TempDir()))
}
