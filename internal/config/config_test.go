package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ASSETGEN_ROOT", "ASSETGEN_REGISTRY", "ASSETGEN_WEBP_QUALITY", "ASSETGEN_WEBP_METHOD", "ASSETGEN_JOBS"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", s.Root)
	assert.Empty(t, s.RegistryPath)
	assert.Equal(t, 82, s.Quality)
	assert.Equal(t, 6, s.Method)
	assert.Equal(t, 1, s.Jobs)

	opts := s.GeneratorOptions()
	assert.Equal(t, 82, opts.Quality)
	assert.Equal(t, 6, opts.Method)
	assert.False(t, opts.Incremental)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ASSETGEN_ROOT", "/srv/site")
	t.Setenv("ASSETGEN_WEBP_QUALITY", "75")
	t.Setenv("ASSETGEN_WEBP_METHOD", "4")
	t.Setenv("ASSETGEN_JOBS", "2")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/site", s.Root)
	assert.Equal(t, 75, s.Quality)
	assert.Equal(t, 4, s.Method)
	assert.Equal(t, 2, s.Jobs)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "quality too high", key: "ASSETGEN_WEBP_QUALITY", value: "101"},
		{name: "method too high", key: "ASSETGEN_WEBP_METHOD", value: "7"},
		{name: "zero jobs", key: "ASSETGEN_JOBS", value: "0"},
		{name: "not a number", key: "ASSETGEN_WEBP_QUALITY", value: "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRegistry(t *testing.T) {
	root := t.TempDir()

	s := &Settings{Root: root, Quality: 82, Method: 6, Jobs: 1}
	reg, err := s.Registry()
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	path := filepath.Join(root, "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("specs:\n  - name: logo\n    source: logo.png\n    widths: [64, 128]\n"), 0644))
	s.RegistryPath = path

	reg, err = s.Registry()
	require.NoError(t, err)
	spec, ok := reg.Lookup("logo")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "logo-128.webp"), spec.OutputPath(128))
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{name: "defaults", s: Settings{Root: ".", Quality: 82, Method: 6, Jobs: 1}},
		{name: "bounds", s: Settings{Root: "/site", Quality: 100, Method: 0, Jobs: 8}},
		{name: "empty root", s: Settings{Quality: 82, Method: 6, Jobs: 1}, wantErr: true},
		{name: "negative quality", s: Settings{Root: ".", Quality: -1, Method: 6, Jobs: 1}, wantErr: true},
		{name: "method above six", s: Settings{Root: ".", Quality: 82, Method: 9, Jobs: 1}, wantErr: true},
	}

	// Run twice so the shared validator instance is exercised across calls.
	for i := 0; i < 2; i++ {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.s.Validate()
				if tt.wantErr {
					assert.ErrorContains(t, err, "invalid settings")
				} else {
					assert.NoError(t, err)
				}
			})
		}
	}
}
