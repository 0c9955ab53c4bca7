// Package server exposes the classifier, scorer and associator over HTTP.
package server

import (
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/metrics"
	"github.com/MeKo-Tech/vistext/internal/scorer"
	"github.com/MeKo-Tech/vistext/internal/validation"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	classifier  *classifier.Classifier
	scorer      *scorer.Scorer
	associator  *associator.Associator
	corsOrigin  string
	maxUploadMB int64
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Rules       classifier.Rules
	Scorer      scorer.Config
	Associator  associator.Config
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ClassifyRequest is the body of POST /v1/classify and of websocket frames.
type ClassifyRequest struct {
	Text      string `json:"text"`
	HasImages bool   `json:"has_images"`
}

// ClassifyResponse carries the classification and the subject heading, if any.
type ClassifyResponse struct {
	Classification classifier.Result `json:"classification"`
	Subject        *string           `json:"subject"`
}

// ScoreResponse is returned by POST /v1/score.
type ScoreResponse struct {
	Filename string        `json:"filename,omitempty"`
	Result   scorer.Result `json:"result"`
}

// AssociateRequest carries the collections to link.
type AssociateRequest struct {
	Topics []*document.QuestionBlock  `json:"topics"`
	Images []*document.ExtractedImage `json:"images"`
}

// AssociateResponse carries the linked collections and their report.
type AssociateResponse struct {
	Topics []*document.QuestionBlock  `json:"topics"`
	Images []*document.ExtractedImage `json:"images"`
	Stats  associator.Stats           `json:"stats"`
	Report validation.Report          `json:"report"`
}

// NewServer builds the components the handlers share.
func NewServer(config Config) (*Server, error) {
	c, err := classifier.New(config.Rules)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	sc, err := scorer.New(config.Scorer)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	a, err := associator.New(config.Associator)
	if err != nil {
		return nil, fmt.Errorf("associator: %w", err)
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 20
	}
	return &Server{
		classifier:  c,
		scorer:      sc,
		associator:  a,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: maxUpload,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/classify", s.corsMiddleware(s.classifyHandler))
	mux.HandleFunc("/v1/score", s.corsMiddleware(s.scoreHandler))
	mux.HandleFunc("/v1/associate", s.corsMiddleware(s.associateHandler))
	mux.HandleFunc("/ws/classify", s.corsMiddleware(s.classifyWebSocketHandler))
	mux.Handle("/metrics", metrics.Handler())
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
