// Package config loads vistext settings from files, environment variables
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/analysis"
	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/detector"
	"github.com/MeKo-Tech/vistext/internal/ocr"
	"github.com/MeKo-Tech/vistext/internal/partition"
	"github.com/MeKo-Tech/vistext/internal/pdf"
	"github.com/MeKo-Tech/vistext/internal/pipeline"
	"github.com/MeKo-Tech/vistext/internal/scorer"
)

// Config is the complete configuration of the vistext commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Extract    ExtractConfig     `mapstructure:"extract" yaml:"extract" json:"extract"`
	Detector   DetectorConfig    `mapstructure:"detector" yaml:"detector" json:"detector"`
	Scorer     scorer.Config     `mapstructure:"scorer" yaml:"scorer" json:"scorer"`
	Classifier ClassifierConfig  `mapstructure:"classifier" yaml:"classifier" json:"classifier"`
	Associator associator.Config `mapstructure:"associator" yaml:"associator" json:"associator"`
	Partition  partition.Config  `mapstructure:"partition" yaml:"partition" json:"partition"`
	OCR        ocr.Config        `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Analyze    AnalyzeConfig     `mapstructure:"analyze" yaml:"analyze" json:"analyze"`
	Server     ServerConfig      `mapstructure:"server" yaml:"server" json:"server"`

	PageAnalysis analysis.Config `mapstructure:"page_analysis" yaml:"page_analysis" json:"page_analysis"`
}

// ExtractConfig holds the settings of the extract command.
type ExtractConfig struct {
	OutputDir     string  `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Pages         string  `mapstructure:"pages" yaml:"pages" json:"pages"`
	DPI           float64 `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	KeepUnlikely  bool    `mapstructure:"keep_unlikely" yaml:"keep_unlikely" json:"keep_unlikely"`
	Embedded      bool    `mapstructure:"embedded" yaml:"embedded" json:"embedded"`
	MinTextLength int     `mapstructure:"min_text_length" yaml:"min_text_length" json:"min_text_length"`
	OverlayDir    string  `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	SQLite        string  `mapstructure:"sqlite" yaml:"sqlite" json:"sqlite"`
	ByPage        bool    `mapstructure:"by_page" yaml:"by_page" json:"by_page"`
	UserPassword  string  `mapstructure:"user_password" yaml:"user_password" json:"-"`
	OwnerPassword string  `mapstructure:"owner_password" yaml:"owner_password" json:"-"`
	MetricsAddr   string  `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}

// DetectorConfig mirrors detector.Config with file and env keys.
type DetectorConfig struct {
	TextPadding      int     `mapstructure:"text_padding" yaml:"text_padding" json:"text_padding"`
	CannyLow         float64 `mapstructure:"canny_low" yaml:"canny_low" json:"canny_low"`
	CannyHigh        float64 `mapstructure:"canny_high" yaml:"canny_high" json:"canny_high"`
	KernelSize       int     `mapstructure:"kernel_size" yaml:"kernel_size" json:"kernel_size"`
	DilateIterations int     `mapstructure:"dilate_iterations" yaml:"dilate_iterations" json:"dilate_iterations"`
	ErodeIterations  int     `mapstructure:"erode_iterations" yaml:"erode_iterations" json:"erode_iterations"`
	MinSize          int     `mapstructure:"min_size" yaml:"min_size" json:"min_size"`
	MaxAspectRatio   float64 `mapstructure:"max_aspect_ratio" yaml:"max_aspect_ratio" json:"max_aspect_ratio"`
	MinFillRatio     float64 `mapstructure:"min_fill_ratio" yaml:"min_fill_ratio" json:"min_fill_ratio"`
	MaxRegions       int     `mapstructure:"max_regions" yaml:"max_regions" json:"max_regions"`
}

// ClassifierConfig points at an optional YAML rules file overlaying the defaults.
type ClassifierConfig struct {
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file" json:"rules_file"`
}

// AnalyzeConfig holds the settings of the analyze command.
type AnalyzeConfig struct {
	Workers     int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	MinScore    int    `mapstructure:"min_score" yaml:"min_score" json:"min_score"`
	FilteredDir string `mapstructure:"filtered_dir" yaml:"filtered_dir" json:"filtered_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with the component defaults.
func DefaultConfig() Config {
	pc := pipeline.DefaultConfig()
	return Config{
		LogLevel: "info",
		Extract: ExtractConfig{
			OutputDir:     pc.OutputDir,
			DPI:           pc.DPI,
			Embedded:      pc.ExtractEmbedded,
			MinTextLength: pc.MinTextLength,
		},
		Detector:   fromDetectorConfig(detector.DefaultConfig()),
		Scorer:     scorer.DefaultConfig(),
		Associator: associator.DefaultConfig(),
		Partition:  partition.DefaultConfig(),
		OCR:        ocr.DefaultConfig(),
		Analyze: AnalyzeConfig{
			Workers:     4,
			MinScore:    40,
			FilteredDir: "filtered",
		},
		PageAnalysis: analysis.DefaultConfig(),
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

func fromDetectorConfig(c detector.Config) DetectorConfig {
	return DetectorConfig{
		TextPadding:      c.TextPadding,
		CannyLow:         c.CannyLow,
		CannyHigh:        c.CannyHigh,
		KernelSize:       c.KernelSize,
		DilateIterations: c.DilateIterations,
		ErodeIterations:  c.ErodeIterations,
		MinSize:          c.MinSize,
		MaxAspectRatio:   c.MaxAspectRatio,
		MinFillRatio:     c.MinFillRatio,
		MaxRegions:       c.MaxRegions,
	}
}

// ToDetectorConfig converts to detector.Config.
func (c *Config) ToDetectorConfig() detector.Config {
	d := c.Detector
	return detector.Config{
		TextPadding:      d.TextPadding,
		CannyLow:         d.CannyLow,
		CannyHigh:        d.CannyHigh,
		KernelSize:       d.KernelSize,
		DilateIterations: d.DilateIterations,
		ErodeIterations:  d.ErodeIterations,
		MinSize:          d.MinSize,
		MaxAspectRatio:   d.MaxAspectRatio,
		MinFillRatio:     d.MinFillRatio,
		MaxRegions:       d.MaxRegions,
	}
}

// ClassifierRules returns the default rules overlaid with the rules file, if any.
func (c *Config) ClassifierRules() (classifier.Rules, error) {
	if c.Classifier.RulesFile == "" {
		return classifier.DefaultRules(), nil
	}
	return classifier.LoadRules(c.Classifier.RulesFile)
}

// Credentials returns the document passwords, or nil when none are set.
func (c *Config) Credentials() *pdf.Credentials {
	if c.Extract.UserPassword == "" && c.Extract.OwnerPassword == "" {
		return nil
	}
	return &pdf.Credentials{UserPassword: c.Extract.UserPassword, OwnerPassword: c.Extract.OwnerPassword}
}

// ToPipelineConfig converts the config to the pipeline configuration.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	rules, err := c.ClassifierRules()
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		OutputDir:       c.Extract.OutputDir,
		PageRange:       c.Extract.Pages,
		DPI:             c.Extract.DPI,
		KeepUnlikely:    c.Extract.KeepUnlikely,
		ExtractEmbedded: c.Extract.Embedded,
		MinTextLength:   c.Extract.MinTextLength,
		OverlayDir:      c.Extract.OverlayDir,
		SQLitePath:      c.Extract.SQLite,
		ByPage:          c.Extract.ByPage,
		Credentials:     c.Credentials(),
		Detector:        c.ToDetectorConfig(),
		Scorer:          c.Scorer,
		Rules:           rules,
		Associator:      c.Associator,
		Partition:       c.Partition,
		OCR:             c.OCR,
	}, nil
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Extract.OutputDir == "" {
		return errors.New("extract.output_dir must not be empty")
	}
	if c.Extract.DPI <= 0 {
		return fmt.Errorf("invalid extract.dpi: %.1f (must be positive)", c.Extract.DPI)
	}
	if c.Extract.MinTextLength < 0 {
		return fmt.Errorf("invalid extract.min_text_length: %d (must be >= 0)", c.Extract.MinTextLength)
	}
	if c.Extract.Pages != "" {
		if _, err := pdf.ParsePageRange(c.Extract.Pages); err != nil {
			return fmt.Errorf("invalid extract.pages: %w", err)
		}
	}
	if err := validateThreshold(c.Detector.MinFillRatio, "detector.min_fill_ratio"); err != nil {
		return err
	}

	components := []struct {
		name string
		err  error
	}{
		{"detector", c.ToDetectorConfig().Validate()},
		{"scorer", c.Scorer.Validate()},
		{"associator", c.Associator.Validate()},
		{"partition", c.Partition.Validate()},
		{"ocr", c.OCR.Validate()},
		{"page_analysis", c.PageAnalysis.Validate()},
	}
	for _, comp := range components {
		if comp.err != nil {
			return fmt.Errorf("invalid %s config: %w", comp.name, comp.err)
		}
	}

	if c.Analyze.Workers <= 0 {
		return fmt.Errorf("invalid analyze workers: %d (must be positive)", c.Analyze.Workers)
	}
	if c.Analyze.FilteredDir == "" {
		return errors.New("analyze.filtered_dir must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	return nil
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
