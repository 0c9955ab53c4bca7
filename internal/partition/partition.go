// Package partition splits a document into typed text, image and table
// elements, either through an Unstructured-compatible HTTP service or
// locally from the PDF text layer.
package partition

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the service key.
const APIKeyEnv = "UNSTRUCTURED_API_KEY"

// DefaultURL is the hosted partition endpoint.
const DefaultURL = "https://api.unstructuredapp.io/general/v0/general"

// Partitioner turns a document into elements.
type Partitioner interface {
	Partition(ctx context.Context, path string, opts Options) ([]document.Element, error)
}

// Options are forwarded to the service unchanged. The local partitioner
// honours Pages, ChunkingStrategy, MaxCharacters and Overlap.
type Options struct {
	Strategy                 string   `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	SplitPDFPage             bool     `mapstructure:"split_pdf_page" yaml:"split_pdf_page" json:"split_pdf_page"`
	SplitPDFAllowFailed      bool     `mapstructure:"split_pdf_allow_failed" yaml:"split_pdf_allow_failed" json:"split_pdf_allow_failed"`
	SplitPDFConcurrencyLevel int      `mapstructure:"split_pdf_concurrency_level" yaml:"split_pdf_concurrency_level" json:"split_pdf_concurrency_level"`
	ExtractImageBlockTypes   []string `mapstructure:"extract_image_block_types" yaml:"extract_image_block_types" json:"extract_image_block_types"`
	ChunkingStrategy         string   `mapstructure:"chunking_strategy" yaml:"chunking_strategy" json:"chunking_strategy"`
	MaxCharacters            int      `mapstructure:"max_characters" yaml:"max_characters" json:"max_characters"`
	NewAfterNChars           int      `mapstructure:"new_after_n_chars" yaml:"new_after_n_chars" json:"new_after_n_chars"`
	Overlap                  int      `mapstructure:"overlap" yaml:"overlap" json:"overlap"`
	// Pages restricts the local partitioner, e.g. "88-92".
	Pages string `mapstructure:"-" yaml:"-" json:"-"`
}

// DefaultOptions returns the options used for question books.
func DefaultOptions() Options {
	return Options{
		Strategy:                 "hi_res",
		SplitPDFPage:             true,
		SplitPDFAllowFailed:      true,
		SplitPDFConcurrencyLevel: 15,
		ExtractImageBlockTypes:   []string{"Image", "Table"},
		ChunkingStrategy:         "by_title",
		MaxCharacters:            4000,
		NewAfterNChars:           3800,
		Overlap:                  200,
	}
}

// Modes for Config.Mode.
const (
	ModeAuto  = "auto"
	ModeAPI   = "api"
	ModeLocal = "local"
)

// Config selects and configures a partitioner.
type Config struct {
	Mode    string        `mapstructure:"mode" yaml:"mode" json:"mode"`
	URL     string        `mapstructure:"url" yaml:"url" json:"url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Options Options       `mapstructure:"options" yaml:"options" json:"options"`
}

// DefaultConfig returns auto mode against the hosted endpoint.
func DefaultConfig() Config {
	return Config{Mode: ModeAuto, URL: DefaultURL, Timeout: 10 * time.Minute, Options: DefaultOptions()}
}

// Validate checks the mode and the API requirements.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeAuto, ModeLocal:
	case ModeAPI:
		if c.URL == "" {
			return fmt.Errorf("partition: url is required in %s mode", ModeAPI)
		}
	default:
		return fmt.Errorf("partition: unknown mode %q", c.Mode)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("partition: negative timeout %s", c.Timeout)
	}
	return nil
}

// ResolveAPIKey returns explicit when set, otherwise the key from the
// environment after loading a .env file in the working directory.
func ResolveAPIKey(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	_ = godotenv.Load()
	return strings.TrimSpace(os.Getenv(APIKeyEnv))
}

// New builds the partitioner selected by cfg. Auto mode uses the service
// when an API key is available and the local text layer otherwise.
func New(cfg Config) (Partitioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := ResolveAPIKey(cfg.APIKey)
	switch {
	case cfg.Mode == ModeLocal:
		return NewLocal(), nil
	case cfg.Mode == ModeAPI && key == "":
		return nil, fmt.Errorf("partition: %s mode needs an API key (set %s)", ModeAPI, APIKeyEnv)
	case key == "":
		slog.Warn("No partition API key provided, falling back to local text extraction")
		return NewLocal(), nil
	}
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	return NewHTTPClient(url, key, cfg.Timeout), nil
}
