package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/testutil"
	"github.com/MeKo-Tech/vistext/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"GET request success", http.MethodGet, http.StatusOK},
		{"POST request not allowed", http.MethodPost, http.StatusMethodNotAllowed},
		{"PUT request not allowed", http.MethodPut, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var response HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "healthy", response.Status)
			assert.NotEmpty(t, response.Time)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestServer_ClassifyHandler(t *testing.T) {
	server := newTestServer(t)

	for _, f := range testutil.QuestionFixtures() {
		t.Run(f.Name, func(t *testing.T) {
			w := postJSON(t, server.classifyHandler, "/v1/classify", ClassifyRequest{Text: f.Text, HasImages: f.HasImages})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp ClassifyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, f.Type, resp.Classification.Type.String())
			if f.Options != nil {
				assert.Equal(t, f.Options, resp.Classification.Options)
			}
			if f.Answer != "" {
				require.NotNil(t, resp.Classification.CorrectAnswer)
				assert.Equal(t, f.Answer, *resp.Classification.CorrectAnswer)
			}
		})
	}
}

func TestServer_ClassifyHandlerSubject(t *testing.T) {
	server := newTestServer(t)
	text := "SUBJECT: Dermatology Assessment\nWhich lesion is shown in the image? A. Macule B. Papule"

	w := postJSON(t, server.classifyHandler, "/v1/classify", ClassifyRequest{Text: text, HasImages: true})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, document.MultipleChoice, resp.Classification.Type)
	assert.True(t, resp.Classification.VisualBonus)
	require.NotNil(t, resp.Subject)
	assert.Equal(t, "Dermatology Assessment", *resp.Subject)
}

func TestServer_ClassifyHandlerErrors(t *testing.T) {
	server := newTestServer(t)

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.classifyHandler(w, httptest.NewRequest(http.MethodGet, "/v1/classify", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("empty text", func(t *testing.T) {
		w := postJSON(t, server.classifyHandler, "/v1/classify", ClassifyRequest{Text: "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "empty")
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		server.classifyHandler(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid JSON body")
	})

	t.Run("body too large", func(t *testing.T) {
		big := ClassifyRequest{Text: strings.Repeat("x", 2*1024*1024)}
		w := postJSON(t, server.classifyHandler, "/v1/classify", big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestServer_ScoreHandler(t *testing.T) {
	server := newTestServer(t)

	picture := image.NewRGBA(image.Rect(0, 0, 300, 250))
	testutil.DrawPicture(picture, picture.Bounds())
	blank := testutil.CreateTestImage(20, 20, color.White)

	tests := []struct {
		name   string
		img    image.Image
		likely bool
	}{
		{"textured picture", picture, true},
		{"small blank tile", blank, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createMultipartFormRequest(t, "image", "crop.png", encodePNG(t, tt.img))
			w := httptest.NewRecorder()
			server.scoreHandler(w, req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp ScoreResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "crop.png", resp.Filename)
			assert.Equal(t, tt.likely, resp.Result.LikelyImage)
			assert.Equal(t, server.scorer.ScoreImage(tt.img).Score, resp.Result.Score)
			assert.Equal(t, tt.img.Bounds().Dx(), resp.Result.Width)
		})
	}
}

func TestServer_ScoreHandlerErrors(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name     string
		req      func() *http.Request
		expected int
	}{
		{
			name:     "method not allowed",
			req:      func() *http.Request { return httptest.NewRequest(http.MethodGet, "/v1/score", nil) },
			expected: http.StatusMethodNotAllowed,
		},
		{
			name:     "no form",
			req:      func() *http.Request { return httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader("x")) },
			expected: http.StatusBadRequest,
		},
		{
			name:     "missing image field",
			req:      func() *http.Request { return createMultipartFormRequest(t, "", "", nil) },
			expected: http.StatusBadRequest,
		},
		{
			name:     "not an image",
			req:      func() *http.Request { return createMultipartFormRequest(t, "image", "a.png", []byte("plain text")) },
			expected: http.StatusBadRequest,
		},
		{
			name: "too large",
			req: func() *http.Request {
				return createMultipartFormRequest(t, "image", "big.png", bytes.Repeat([]byte{0}, 2*1024*1024))
			},
			expected: http.StatusRequestEntityTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.scoreHandler(w, tt.req())
			assert.Equal(t, tt.expected, w.Code, w.Body.String())
		})
	}
}

func TestServer_AssociateHandler(t *testing.T) {
	server := newTestServer(t)
	subject := "Dermatology"
	req := AssociateRequest{
		Topics: []*document.QuestionBlock{
			{TopicID: "topic_0001", Page: 88, Content: "Which rash is shown?", Type: document.MultipleChoice, Subject: &subject, Confidence: 0.9},
			{TopicID: "topic_0002", Page: 90, Content: "The dose is ____ mg.", Type: document.FillBlank, Confidence: 0.9},
		},
		Images: []*document.ExtractedImage{
			{ID: "img_0001", Page: 88, Source: document.SourceDetectedRegion},
			{ID: "img_0002", Page: 89, Source: document.SourceEmbedded},
			{ID: "img_0003", Page: 92, Source: document.SourcePartition},
		},
	}

	w := postJSON(t, server.associateHandler, "/v1/associate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AssociateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Topics, 2)
	assert.Equal(t, []string{"img_0001", "img_0002"}, resp.Topics[0].Images)
	assert.Empty(t, resp.Topics[1].Images)

	require.Len(t, resp.Images, 3)
	require.NotNil(t, resp.Images[1].AssociatedTopicID)
	assert.Equal(t, "topic_0001", *resp.Images[1].AssociatedTopicID)
	assert.Nil(t, resp.Images[2].AssociatedTopicID)

	assert.Equal(t, 2, resp.Stats.Links)
	assert.Equal(t, 1, resp.Stats.AdjacentLinks)
	assert.Equal(t, 2, resp.Report.TotalTopics)
	assert.Equal(t, 1, resp.Report.ValidTopics)
	assert.InDelta(t, 0.5, resp.Report.ImageCoverage, 1e-9)
	assert.Equal(t, validation.VerdictNeedsReview, resp.Report.Verdict())
}

func TestServer_AssociateHandlerErrors(t *testing.T) {
	server := newTestServer(t)

	w := postJSON(t, server.associateHandler, "/v1/associate", map[string]any{
		"topics": []any{map[string]any{"topic_id": "t", "question_type": "essay"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, server.associateHandler, "/v1/associate", map[string]any{"topics": []any{nil}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "topic 0 is null")

	w = postJSON(t, server.associateHandler, "/v1/associate", AssociateRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AssociateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, validation.ErrNoTopics, resp.Report.Error)
}

func TestServer_Routes(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	body, _ := json.Marshal(ClassifyRequest{Text: "The normal adult heart rate is ____ beats per minute."})
	resp, err = http.Post(ts.URL+"/v1/classify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, buf.String(), "vistext_http_requests_total")
	assert.Contains(t, buf.String(), `endpoint="/v1/classify"`)
}
