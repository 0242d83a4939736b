package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1920, cfg.Height)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, "Wedding_ECard.mp4", cfg.Render.OutputName)
	assert.InDelta(t, 1.05, cfg.Render.Brightness, 1e-9)
	assert.InDelta(t, 1.10, cfg.Render.Contrast, 1e-9)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecard.yaml")
	data := `
fps: 25
workers: 2
server:
  addr: ":9090"
session:
  ttl: 30m
render:
  output_name: Card.mp4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.FPS)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "Card.mp4", cfg.Render.OutputName)
	// untouched keys keep their defaults
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, "aac", cfg.Render.AudioCodec)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ECARD_ADDR", ":7070")
	t.Setenv("ECARD_WORKERS", "3")
	t.Setenv("ECARD_DEBUG", "true")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Server.Debug)

	t.Setenv("ECARD_WORKERS", "many")
	assert.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"odd width", func(c *Config) { c.Width = 1081 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"empty output name", func(c *Config) { c.Render.OutputName = "" }},
		{"negative zoom", func(c *Config) { c.Render.ZoomGrowth = -0.1 }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero max pixels", func(c *Config) { c.Upload.MaxPixels = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
