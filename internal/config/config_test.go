package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "png", cfg.Output.Format)
	assert.Equal(t, "edited-image", cfg.Output.FileName)
	assert.Equal(t, 0.1, cfg.Selector.ScaleRange.Min)
	assert.Equal(t, 2.0, cfg.Selector.ScaleRange.Max)
	assert.Equal(t, 1.0, cfg.Selector.DefaultScale)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no formats", func(c *Config) { c.Source.SupportedFormats = nil }},
		{"negative max pixels", func(c *Config) { c.Source.MaxPixels = -1 }},
		{"zero scale min", func(c *Config) { c.Selector.ScaleRange.Min = 0 }},
		{"inverted scale range", func(c *Config) { c.Selector.ScaleRange.Max = 0.05 }},
		{"zero step", func(c *Config) { c.Selector.ScaleRange.Step = 0 }},
		{"default scale outside range", func(c *Config) { c.Selector.DefaultScale = 3 }},
		{"unknown interpolator", func(c *Config) { c.Renderer.Interpolator = "lanczos" }},
		{"unknown preview filter", func(c *Config) { c.Preview.Filter = "sinc" }},
		{"negative cache", func(c *Config) { c.Preview.CacheSize = -1 }},
		{"negative render limit", func(c *Config) { c.Renderer.MaxPixels = -1 }},
		{"negative preview limit", func(c *Config) { c.Preview.MaxPixels = -1 }},
		{"unknown cropper filter", func(c *Config) { c.Cropper.Filter = "sinc" }},
		{"no workers", func(c *Config) { c.Cropper.Workers = 0 }},
		{"unknown format", func(c *Config) { c.Output.Format = "gif" }},
		{"no file name", func(c *Config) { c.Output.FileName = "" }},
		{"bad compression", func(c *Config) { c.Output.Compression = "ultra" }},
		{"quality too high", func(c *Config) { c.Output.Quality = 101 }},
		{"negative log size", func(c *Config) { c.Logging.MaxSizeMB = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Output.Format = "webp"
	cfg.Renderer.Interpolator = "catmull-rom"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output": {"format": "jpg"}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpg", cfg.Output.Format)
	assert.Equal(t, "edited-image", cfg.Output.FileName)
	assert.Equal(t, "bilinear", cfg.Renderer.Interpolator)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
	assert.Contains(t, GetConfigPath(), "photo-editor")
}
