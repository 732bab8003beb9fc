package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	home  string
	files map[string][]byte
}

func (f *fakeFS) UserHomeDir() (string, error) { return f.home, nil }

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func configPath(home string) string {
	return filepath.Join(home, ".config", ConfigDir, ConfigFile)
}

func TestLoadReturnsDefaultsWithoutDotfile(t *testing.T) {
	loader := NewLoaderWithFS(&fakeFS{home: "/home/u", files: map[string][]byte{}})

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Model, cfg.Model)
	assert.Equal(t, int64(10*1024*1024), cfg.Sandbox.MaxOutputBytes)
}

func TestLoadMergesDotfileOverDefaults(t *testing.T) {
	fs := &fakeFS{
		home: "/home/u",
		files: map[string][]byte{
			configPath("/home/u"): []byte(`{
				"model": "gemini-2.5-pro",
				"sandbox": {"timeout_seconds": 30},
				"history": {"max_turns": 5}
			}`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, 30, cfg.Sandbox.TimeoutSeconds)
	assert.Equal(t, 5, cfg.History.MaxTurns)

	// Untouched keys keep their defaults.
	assert.Equal(t, int64(10*1024*1024), cfg.Sandbox.MaxOutputBytes)
	assert.NotEmpty(t, cfg.Policy.DestructivePatterns)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	fs := &fakeFS{
		home: "/home/u",
		files: map[string][]byte{
			configPath("/home/u"): []byte(`{model:`),
		},
	}
	_, err := NewLoaderWithFS(fs).Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidMergedConfig(t *testing.T) {
	fs := &fakeFS{
		home: "/home/u",
		files: map[string][]byte{
			configPath("/home/u"): []byte(`{"policy": {"destructive_patterns": ["([bad"]}}`),
		},
	}
	_, err := NewLoaderWithFS(fs).Load()
	assert.Error(t, err)
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sandbox.TimeoutSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Policy.AmbiguousPatterns = []string{"(unclosed"}
	assert.Error(t, cfg.Validate())
}
