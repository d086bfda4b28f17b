package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/transform"
	"slide-annotator/internal/wand"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANNOTATOR_CONFIG", "")
}

func TestDefaultsMatchTools(t *testing.T) {
	c := Default()
	assert.Equal(t, wand.DefaultOptions(), c.WandOptions())
	assert.Equal(t, transform.DefaultOptions(), c.TransformOptions())
	assert.Equal(t, annotation.DefaultStyle(), c.DefaultStyle())
	assert.NoError(t, c.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "annotator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wand:\n  threshold: 40\n  contiguous: false\ncombine:\n  retries: 3\nstyle:\n  fill_color: \"#ff0000\"\n"), 0o644))
	t.Setenv("ANNOTATOR_WAND_GAIN", "2")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Wand.Threshold)
	assert.False(t, c.Wand.Contiguous)
	assert.Equal(t, 3, c.Combine.Retries)
	assert.InDelta(t, 2, c.Wand.Gain, 1e-12)
	assert.Equal(t, "#ff0000", c.DefaultStyle().FillColor)
	assert.InDelta(t, 0.0125, c.Combine.Epsilon, 1e-12)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolate(t)
	t.Setenv("ANNOTATOR_WAND_THRESHOLD", "300")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted range", func(c *Config) { c.Wand.MinThreshold, c.Wand.MaxThreshold = 50, 20 }},
		{"threshold below min", func(c *Config) { c.Wand.Threshold = 0 }},
		{"coverage floor", func(c *Config) { c.Wand.CoverageFloor = 1 }},
		{"negative retries", func(c *Config) { c.Combine.Retries = -1 }},
		{"zero epsilon", func(c *Config) { c.Combine.Epsilon = 0 }},
		{"zero handle", func(c *Config) { c.Transform.HandleSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	c := Default()
	c.Wand.Threshold = 25
	c.Transform.HandleSize = 12
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, Save(c, path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
