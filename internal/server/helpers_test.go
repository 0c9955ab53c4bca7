package server

import (
	"bytes"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/scorer"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/stretchr/testify/require"
)

// newTestServer builds a server on the default component configuration.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 1,
		TimeoutSec:  5,
		Rules:       classifier.DefaultRules(),
		Scorer:      scorer.DefaultConfig(),
		Associator:  associator.DefaultConfig(),
	})
	require.NoError(t, err)
	return s
}

// mockWebSocketConn records the frames written to it.
type mockWebSocketConn struct {
	sent [][]byte
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	m.sent = append(m.sent, data)
	return nil
}

// encodePNG encodes an image to PNG bytes.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	data, err := utils.EncodePNG(img)
	require.NoError(t, err)
	return data
}

// createMultipartFormRequest creates a multipart form request with an image.
func createMultipartFormRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/score", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
