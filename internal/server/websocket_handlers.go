package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS headers already gate browsers; the socket accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketConnWriter is the write side of a websocket connection.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is one reply frame on /ws/classify.
type WebSocketResponse struct {
	Type      string            `json:"type"` // "classification" or "error"
	Result    *ClassifyResponse `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorType string            `json:"error_type,omitempty"`
	Sequence  int               `json:"sequence"`
}

// classifyWebSocketHandler answers every text frame with a classification.
func (s *Server) classifyWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
}

func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	seq := 0
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		if messageType != websocket.TextMessage {
			continue
		}
		seq++
		s.handleWebSocketMessage(conn, seq, data)
	}
}

// handleWebSocketMessage accepts a ClassifyRequest object or, failing that,
// treats the whole frame as the text to classify.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, seq int, data []byte) {
	req, ok := parseWebSocketRequest(data)
	if !ok {
		apiOperations.WithLabelValues("ws_classify", "error").Inc()
		s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      "error",
			Error:     "text must not be empty",
			ErrorType: "invalid_request",
			Sequence:  seq,
		})
		return
	}

	resp := s.classify(req)
	apiOperations.WithLabelValues("ws_classify", "success").Inc()
	s.sendWebSocketResponse(conn, WebSocketResponse{Type: "classification", Result: &resp, Sequence: seq})
}

func parseWebSocketRequest(data []byte) (ClassifyRequest, bool) {
	var req ClassifyRequest
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &req) == nil {
		return req, strings.TrimSpace(req.Text) != ""
	}
	req = ClassifyRequest{Text: string(data)}
	return req, strings.TrimSpace(req.Text) != ""
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
