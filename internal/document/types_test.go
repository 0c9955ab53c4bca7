package document

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedAssetRef(t *testing.T) {
	a := EmbeddedAsset{Page: 4, Index: 2, ObjectNumber: 17, Name: "Im1", Format: "jpeg", Pixels: image.NewGray(image.Rect(0, 0, 64, 48))}
	assert.Equal(t, AssetRef{Index: 2, ObjectNumber: 17, Name: "Im1", Format: "jpeg", Width: 64, Height: 48}, a.Ref())

	bare := EmbeddedAsset{Index: 1, Format: "png"}
	assert.Equal(t, AssetRef{Index: 1, Format: "png"}, bare.Ref())
}

func TestPageMetaDropsPixels(t *testing.T) {
	p := NewPage(9, image.NewGray(image.Rect(0, 0, 30, 20)))
	p.Assets = []AssetRef{{Index: 1, Format: "png"}}

	meta := p.Meta()
	assert.Nil(t, meta.Pixels)
	assert.Equal(t, 9, meta.Number)
	assert.Equal(t, 30, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Equal(t, p.Assets, meta.Assets)
	assert.NotNil(t, p.Pixels, "the original keeps its pixels")

	data, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":9,"width":30,"height":20,"embedded_assets":[{"index":1,"object_number":0,"format":"png","width":0,"height":0}]}`, string(data))
}
