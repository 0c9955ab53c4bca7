package partition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MeKo-Tech/vistext/internal/document"
)

// APIError is a non-200 answer from the partition service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("partition service returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient posts documents to an Unstructured-compatible endpoint. It
// makes exactly one request per document and never retries.
type HTTPClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a client; a zero timeout means none.
func NewHTTPClient(url, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{url: url, apiKey: apiKey, httpClient: &http.Client{Timeout: timeout}}
}

// Partition uploads path and converts the returned elements.
func (c *HTTPClient) Partition(ctx context.Context, path string, opts Options) ([]document.Element, error) {
	body, contentType, err := buildForm(path, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build partition request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("unstructured-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partition request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode partition response: %w", err)
	}
	elems := ConvertElements(raw)
	slog.Info("Partitioned document", "path", path, "elements", len(elems),
		"duration_ms", time.Since(start).Milliseconds())
	return elems, nil
}

// buildForm writes the file and the pass-through options as multipart fields.
func buildForm(path string, opts Options) (*bytes.Buffer, string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-provided document path
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"strategy", opts.Strategy},
		{"split_pdf_page", strconv.FormatBool(opts.SplitPDFPage)},
		{"split_pdf_allow_failed", strconv.FormatBool(opts.SplitPDFAllowFailed)},
		{"chunking_strategy", opts.ChunkingStrategy},
	}
	for _, kv := range []struct {
		name string
		n    int
	}{
		{"split_pdf_concurrency_level", opts.SplitPDFConcurrencyLevel},
		{"max_characters", opts.MaxCharacters},
		{"new_after_n_chars", opts.NewAfterNChars},
		{"overlap", opts.Overlap},
	} {
		if kv.n > 0 {
			fields = append(fields, [2]string{kv.name, strconv.Itoa(kv.n)})
		}
	}
	for _, t := range opts.ExtractImageBlockTypes {
		fields = append(fields, [2]string{"extract_image_block_types", t})
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
