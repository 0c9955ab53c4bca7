package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebSocketRequest(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantText  string
		hasImages bool
		ok        bool
	}{
		{"json object", `{"text":"Select all that apply: A. X B. Y","has_images":true}`, "Select all that apply: A. X B. Y", true, true},
		{"plain text", "The dose is ____ mg.", "The dose is ____ mg.", false, true},
		{"brace but not json", "{not json} still text", "{not json} still text", false, true},
		{"empty json text", `{"text":"  "}`, "  ", false, false},
		{"blank frame", "   ", "   ", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := parseWebSocketRequest([]byte(tt.frame))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wantText, req.Text)
			assert.Equal(t, tt.hasImages, req.HasImages)
		})
	}
}

func TestServer_HandleWebSocketMessage(t *testing.T) {
	server := newTestServer(t)
	conn := &mockWebSocketConn{}

	server.handleWebSocketMessage(conn, 1, []byte("The dose is ____ mg per kilogram."))
	server.handleWebSocketMessage(conn, 2, []byte(""))
	require.Len(t, conn.sent, 2)

	var first WebSocketResponse
	require.NoError(t, json.Unmarshal(conn.sent[0], &first))
	assert.Equal(t, "classification", first.Type)
	assert.Equal(t, 1, first.Sequence)
	require.NotNil(t, first.Result)
	assert.Equal(t, document.FillBlank, first.Result.Classification.Type)

	var second WebSocketResponse
	require.NoError(t, json.Unmarshal(conn.sent[1], &second))
	assert.Equal(t, "error", second.Type)
	assert.Equal(t, "invalid_request", second.ErrorType)
	assert.Nil(t, second.Result)
}

func TestServer_ClassifyWebSocketEndToEnd(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/classify"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	frames := []string{
		`{"text":"Select all that apply: A. Fever B. Cough"}`,
		"Which of the following is first-line?\nA. Penicillin\nB. Rest",
	}
	want := []document.QuestionType{document.SATA, document.MultipleChoice}
	for i, f := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(f)))

		var got WebSocketResponse
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, i+1, got.Sequence)
		require.NotNil(t, got.Result)
		assert.Equal(t, want[i], got.Result.Classification.Type)
	}
}
