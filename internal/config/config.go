package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/photo-editor/pkg/codec"
	"github.com/menta2k/photo-editor/pkg/preview"
	"github.com/menta2k/photo-editor/pkg/renderer"
	"github.com/menta2k/photo-editor/pkg/selector"
)

// Config holds the application configuration
type Config struct {
	Source   SourceConfig   `json:"source"`
	Selector SelectorConfig `json:"selector"`
	Renderer RendererConfig `json:"renderer"`
	Preview  PreviewConfig  `json:"preview"`
	Cropper  CropperConfig  `json:"cropper"`
	Output   OutputConfig   `json:"output"`
	Logging  LoggingConfig  `json:"logging"`
}

// SourceConfig holds configuration for image loading
type SourceConfig struct {
	SupportedFormats []string `json:"supported_formats"`
	MaxPixels        int      `json:"max_pixels"`
}

// SelectorConfig holds the scale slider settings
type SelectorConfig struct {
	ScaleRange   selector.ScaleRange `json:"scale_range"`
	DefaultScale float64             `json:"default_scale"`
}

// RendererConfig holds configuration for crop extraction
type RendererConfig struct {
	Interpolator string `json:"interpolator"`
	MaxPixels    int    `json:"max_pixels"`
}

// PreviewConfig holds configuration for on-screen previews
type PreviewConfig struct {
	Filter    string `json:"filter"`
	CacheSize int    `json:"cache_size"`
	MaxPixels int    `json:"max_pixels"`
}

// CropperConfig holds configuration for crop suggestions
type CropperConfig struct {
	Smart   bool   `json:"smart"`
	Workers int    `json:"workers"`
	Filter  string `json:"filter"`
}

// OutputConfig holds configuration for export
type OutputConfig struct {
	Format      string `json:"format"`
	FileName    string `json:"file_name"`
	Compression string `json:"compression"`
	Quality     int    `json:"quality"`
	Lossless    bool   `json:"lossless"`
	OutputDir   string `json:"output_dir"`
}

// LoggingConfig holds configuration for log output
type LoggingConfig struct {
	// File enables rotating file output; empty logs to stderr
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
	Debug      bool   `json:"debug"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			SupportedFormats: []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "tiff"},
			MaxPixels:        100_000_000,
		},
		Selector: SelectorConfig{
			ScaleRange:   selector.DefaultScaleRange,
			DefaultScale: selector.DefaultScale,
		},
		Renderer: RendererConfig{
			Interpolator: renderer.BiLinear,
			MaxPixels:    renderer.DefaultMaxPixels,
		},
		Preview: PreviewConfig{
			Filter:    "lanczos",
			CacheSize: 32,
			MaxPixels: preview.DefaultMaxPixels,
		},
		Cropper: CropperConfig{
			Smart:   true,
			Workers: 4,
			Filter:  "lanczos",
		},
		Output: OutputConfig{
			Format:      codec.FormatPNG,
			FileName:    "edited-image",
			Compression: "default",
			Quality:     100,
			Lossless:    true,
			OutputDir:   "./output",
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 2,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing fields keep
// their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Source.SupportedFormats) == 0 {
		return fmt.Errorf("source.supported_formats cannot be empty")
	}

	if c.Source.MaxPixels < 0 {
		return fmt.Errorf("source.max_pixels cannot be negative")
	}

	r := c.Selector.ScaleRange
	if r.Min <= 0 || r.Max < r.Min || r.Step <= 0 {
		return fmt.Errorf("selector.scale_range must satisfy 0 < min <= max and step > 0")
	}

	if !r.Contains(c.Selector.DefaultScale) {
		return fmt.Errorf("selector.default_scale must be between %g and %g", r.Min, r.Max)
	}

	if !renderer.ValidInterpolator(c.Renderer.Interpolator) {
		return fmt.Errorf("renderer.interpolator %q is not supported", c.Renderer.Interpolator)
	}

	if c.Renderer.MaxPixels < 0 {
		return fmt.Errorf("renderer.max_pixels cannot be negative")
	}

	if _, err := preview.ParseFilter(c.Preview.Filter); err != nil {
		return fmt.Errorf("preview.filter: %w", err)
	}

	if c.Preview.CacheSize < 0 {
		return fmt.Errorf("preview.cache_size cannot be negative")
	}

	if c.Preview.MaxPixels < 0 {
		return fmt.Errorf("preview.max_pixels cannot be negative")
	}

	if _, err := preview.ParseFilter(c.Cropper.Filter); err != nil {
		return fmt.Errorf("cropper.filter: %w", err)
	}

	if c.Cropper.Workers < 1 {
		return fmt.Errorf("cropper.workers must be positive")
	}

	if !codec.ValidFormat(c.Output.Format) {
		return fmt.Errorf("output.format %q is not supported", c.Output.Format)
	}

	if c.Output.FileName == "" {
		return fmt.Errorf("output.file_name cannot be empty")
	}

	if _, err := codec.ParseCompressionLevel(c.Output.Compression); err != nil {
		return fmt.Errorf("output.compression: %w", err)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation limits cannot be negative")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photo-editor", "config.json")
}
