package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/MeKo-Tech/vistext/internal/validation"
	"github.com/MeKo-Tech/vistext/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// classifyHandler classifies one text block.
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClassifyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeErrorResponse(w, "text must not be empty", http.StatusBadRequest)
		return
	}

	resp := s.classify(req)
	apiOperations.WithLabelValues("classify", "success").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) classify(req ClassifyRequest) ClassifyResponse {
	return ClassifyResponse{
		Classification: s.classifier.Classify(req.Text, req.HasImages),
		Subject:        s.classifier.ExtractSubject(req.Text),
	}
}

// scoreHandler scores an uploaded image.
func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		if isTooLarge(err) {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	img, err := utils.DecodeImage(data)
	if err != nil {
		apiOperations.WithLabelValues("score", "error").Inc()
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	res := s.scorer.ScoreImage(img)
	if res.Failed() {
		apiOperations.WithLabelValues("score", "error").Inc()
		s.writeErrorResponse(w, "Scoring failed: "+res.Error, http.StatusUnprocessableEntity)
		return
	}
	apiOperations.WithLabelValues("score", "success").Inc()
	writeJSON(w, http.StatusOK, ScoreResponse{Filename: header.Filename, Result: res})
}

// associateHandler links the posted topics and images and reports on them.
func (s *Server) associateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssociateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	for i, t := range req.Topics {
		if t == nil {
			s.writeErrorResponse(w, fmt.Sprintf("topic %d is null", i), http.StatusBadRequest)
			return
		}
	}
	for i, img := range req.Images {
		if img == nil {
			s.writeErrorResponse(w, fmt.Sprintf("image %d is null", i), http.StatusBadRequest)
			return
		}
	}

	stats := s.associator.Associate(req.Topics, req.Images)
	resp := AssociateResponse{
		Topics: req.Topics,
		Images: req.Images,
		Stats:  stats,
		Report: validation.Build(req.Topics, req.Images),
	}
	apiOperations.WithLabelValues("associate", "success").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	if isTooLarge(err) {
		s.writeErrorResponse(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.writeErrorResponse(w, "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
}

// isTooLarge distinguishes an exceeded body limit from a generic parse error.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left but to log.
		slog.Error("Failed to encode response", "error", err)
	}
}
