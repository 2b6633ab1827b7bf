// Package config defines the application configuration tree and its
// loading from files, environment variables and defaults.
package config

import (
	"fmt"
	"time"

	"github.com/tarjim/tarjim/internal/ocr"
	"github.com/tarjim/tarjim/internal/segment"
	"github.com/tarjim/tarjim/internal/translate"
)

// Config is the root configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	// Verbose enables debug logging regardless of LogLevel.
	Verbose bool `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Segment     segment.Config   `mapstructure:"segment" yaml:"segment" json:"segment"`
	OCR         ocr.Config       `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Translate   translate.Config `mapstructure:"translate" yaml:"translate" json:"translate"`
	Store       StoreConfig      `mapstructure:"store" yaml:"store" json:"store"`
	Worker      WorkerConfig     `mapstructure:"worker" yaml:"worker" json:"worker"`
	Translation BackendConfig    `mapstructure:"translation_backend" yaml:"translation_backend" json:"translation_backend"`
}

// StoreConfig selects and locates the job store.
type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"`
	// Path is the SQLite database file. Ignored by the memory driver.
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// WorkerConfig tunes the polling worker.
type WorkerConfig struct {
	// PollInterval is the idle delay between claim attempts.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
	// JobTimeout is the hard wall-clock budget per job.
	JobTimeout time.Duration `mapstructure:"job_timeout" yaml:"job_timeout" json:"job_timeout"`
	// MetricsAddr exposes Prometheus metrics when non-empty (e.g. ":9090").
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}

// BackendConfig locates the translation inference service.
type BackendConfig struct {
	// Endpoint is the HTTP translation endpoint.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	// Model is the model identifier passed to the backend.
	Model string `mapstructure:"model" yaml:"model" json:"model"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		Segment:   segment.DefaultConfig(),
		OCR:       ocr.DefaultConfig(),
		Translate: translate.DefaultConfig(),
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "tarjim.db",
		},
		Worker: WorkerConfig{
			PollInterval: 2 * time.Second,
			JobTimeout:   30 * time.Minute,
		},
		Translation: BackendConfig{
			Model: "nllb-200-distilled-600M",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("invalid store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store path is required for the sqlite driver")
	}

	if c.Segment.OCRGapThreshold <= 0 {
		return fmt.Errorf("segment.ocr_gap_threshold must be positive, got %v", c.Segment.OCRGapThreshold)
	}
	if c.Segment.PDFGapThreshold <= 0 {
		return fmt.Errorf("segment.pdf_gap_threshold must be positive, got %v", c.Segment.PDFGapThreshold)
	}
	if c.Segment.UpscaleFactor < 1 {
		return fmt.Errorf("segment.upscale_factor must be at least 1, got %d", c.Segment.UpscaleFactor)
	}

	if c.OCR.Engine == "" {
		return fmt.Errorf("ocr.engine is required")
	}

	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Translate.SourceLang == "" || c.Translate.TargetLang == "" {
		return fmt.Errorf("translate.source_lang and translate.target_lang are required")
	}

	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker.poll_interval must be positive, got %v", c.Worker.PollInterval)
	}
	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker.job_timeout must be positive, got %v", c.Worker.JobTimeout)
	}

	return nil
}
