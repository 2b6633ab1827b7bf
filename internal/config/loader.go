package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "tarjim"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "TARJIM"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance to ensure flag bindings work
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration from files, environment variables, and
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	// Current directory
	l.v.AddConfigPath(".")

	// User's home directory
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	// System-wide configuration
	l.v.AddConfigPath("/etc/tarjim")

	// XDG config directory
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "tarjim"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "tarjim"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	// Segmentation defaults
	l.v.SetDefault("segment.ocr_gap_threshold", defaults.Segment.OCRGapThreshold)
	l.v.SetDefault("segment.pdf_gap_threshold", defaults.Segment.PDFGapThreshold)
	l.v.SetDefault("segment.min_vector_text_len", defaults.Segment.MinVectorTextLen)
	l.v.SetDefault("segment.upscale_factor", defaults.Segment.UpscaleFactor)
	l.v.SetDefault("segment.heading_font_cutoff", defaults.Segment.HeadingFontCutoff)
	l.v.SetDefault("segment.top_band_height", defaults.Segment.TopBandHeight)

	// OCR defaults
	l.v.SetDefault("ocr.engine", defaults.OCR.Engine)
	l.v.SetDefault("ocr.fallback_enabled", defaults.OCR.FallbackEnabled)
	l.v.SetDefault("ocr.primary_engine", defaults.OCR.PrimaryEngine)
	l.v.SetDefault("ocr.fallback_engine", defaults.OCR.FallbackEngine)
	l.v.SetDefault("ocr.language", defaults.OCR.Language)
	l.v.SetDefault("ocr.remote_endpoint", defaults.OCR.RemoteEndpoint)

	// Translation defaults
	l.v.SetDefault("translate.source_lang", defaults.Translate.SourceLang)
	l.v.SetDefault("translate.target_lang", defaults.Translate.TargetLang)
	l.v.SetDefault("translate.batch_size", defaults.Translate.BatchSize)
	l.v.SetDefault("translate.skip_target_language", defaults.Translate.SkipTargetLanguage)
	l.v.SetDefault("translate.max_workers", defaults.Translate.MaxWorkers)

	// Store defaults
	l.v.SetDefault("store.driver", defaults.Store.Driver)
	l.v.SetDefault("store.path", defaults.Store.Path)

	// Worker defaults
	l.v.SetDefault("worker.poll_interval", defaults.Worker.PollInterval)
	l.v.SetDefault("worker.job_timeout", defaults.Worker.JobTimeout)
	l.v.SetDefault("worker.metrics_addr", defaults.Worker.MetricsAddr)

	// Translation backend defaults
	l.v.SetDefault("translation_backend.endpoint", defaults.Translation.Endpoint)
	l.v.SetDefault("translation_backend.model", defaults.Translation.Model)
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile generates a default configuration file.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()

	if filename == "" {
		filename = "tarjim.yaml"
	}

	return loader.WriteConfigToFile(filename)
}
