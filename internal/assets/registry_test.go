package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry("/site")

	require.Equal(t, 2, reg.Len())
	specs := reg.Specs()

	assert.Equal(t, "teacher", specs[0].Name)
	assert.Equal(t, "photo_2023-02-05_21-22-56", specs[0].BaseName)
	assert.Equal(t, "/site", specs[0].OutputDir)
	assert.Equal(t, []int{320, 420, 600}, specs[0].Widths)

	assert.Equal(t, "hero", specs[1].Name)
	assert.Equal(t, "hero-a-plus", specs[1].BaseName)
	assert.Equal(t, filepath.Join("/site", "assets", "hero"), specs[1].OutputDir)
	assert.Equal(t, []int{560, 800}, specs[1].Widths)
}

func TestOutputPaths(t *testing.T) {
	hero, ok := DefaultRegistry("/site").Lookup("hero")
	require.True(t, ok)

	assert.Equal(t, []string{
		filepath.Join("/site", "assets", "hero", "hero-a-plus-560.webp"),
		filepath.Join("/site", "assets", "hero", "hero-a-plus-800.webp"),
	}, hero.OutputPaths())
	assert.Equal(t, filepath.Join("/site", "assets", "hero", "hero-a-plus.webp"), hero.OutputPath(0))
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		spec AssetSpec
	}{
		{name: "missing name", spec: AssetSpec{SourcePath: "a.jpg", Widths: []int{100}}},
		{name: "missing source", spec: AssetSpec{Name: "a", Widths: []int{100}}},
		{name: "empty widths", spec: AssetSpec{Name: "a", SourcePath: "a.jpg"}},
		{name: "zero width", spec: AssetSpec{Name: "a", SourcePath: "a.jpg", Widths: []int{100, 0}}},
		{name: "negative width", spec: AssetSpec{Name: "a", SourcePath: "a.jpg", Widths: []int{-5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestNewRegistryRejectsDuplicateNames(t *testing.T) {
	s := AssetSpec{Name: "a", SourcePath: "a.jpg", Widths: []int{100}}
	_, err := NewRegistry(s, s)
	assert.ErrorContains(t, err, "duplicate")
}

func TestNewRegistryDerivesDefaults(t *testing.T) {
	reg, err := NewRegistry(AssetSpec{Name: "logo", SourcePath: "img/brand/logo.png", Widths: []int{64}})
	require.NoError(t, err)

	spec, ok := reg.Lookup("logo")
	require.True(t, ok)
	assert.Equal(t, "logo", spec.BaseName)
	assert.Equal(t, filepath.Join("img", "brand"), spec.OutputDir)
}

func TestRegistryIsImmutable(t *testing.T) {
	widths := []int{100, 200}
	reg, err := NewRegistry(AssetSpec{Name: "a", SourcePath: "a.jpg", Widths: widths})
	require.NoError(t, err)

	widths[0] = 999
	specs := reg.Specs()
	specs[0].Widths[1] = 999
	specs[0].Name = "changed"

	again := reg.Specs()
	assert.Equal(t, "a", again[0].Name)
	assert.Equal(t, []int{100, 200}, again[0].Widths)
}

func TestFilter(t *testing.T) {
	reg := DefaultRegistry("/site")

	only, err := reg.Filter([]string{"hero"})
	require.NoError(t, err)
	require.Equal(t, 1, only.Len())
	assert.Equal(t, "hero", only.Specs()[0].Name)

	all, err := reg.Filter(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Len())

	_, err = reg.Filter([]string{"footer"})
	assert.ErrorContains(t, err, "unknown asset spec")
}

func TestOutputDirsAndSourceFor(t *testing.T) {
	reg := DefaultRegistry("/site")

	assert.Equal(t, []string{"/site", filepath.Join("/site", "assets", "hero")}, reg.OutputDirs())

	spec, ok := reg.SourceFor("/site/assets/hero/../hero/hero-a-plus.webp")
	require.True(t, ok)
	assert.Equal(t, "hero", spec.Name)

	_, ok = reg.SourceFor("/site/other.jpg")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	root := t.TempDir()
	content := `specs:
  - name: portrait
    source: photos/me.jpg
    widths: [320, 640]
  - name: banner
    source: /abs/banner.png
    output_dir: out/banner
    base_name: top
    widths: [1200]
`
	path := filepath.Join(root, "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg, err := LoadRegistry(path, root)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	specs := reg.Specs()
	assert.Equal(t, filepath.Join(root, "photos", "me.jpg"), specs[0].SourcePath)
	assert.Equal(t, filepath.Join(root, "photos"), specs[0].OutputDir)
	assert.Equal(t, "me", specs[0].BaseName)

	assert.Equal(t, "/abs/banner.png", specs[1].SourcePath)
	assert.Equal(t, filepath.Join(root, "out", "banner", "top-1200.webp"), specs[1].OutputPath(1200))
}

func TestLoadRegistryErrors(t *testing.T) {
	root := t.TempDir()

	_, err := LoadRegistry(filepath.Join(root, "missing.yaml"), root)
	assert.ErrorContains(t, err, "failed to read registry file")

	empty := filepath.Join(root, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("specs: []\n"), 0644))
	_, err = LoadRegistry(empty, root)
	assert.ErrorContains(t, err, "defines no specs")

	bad := filepath.Join(root, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("specs:\n  - name: x\n    source: x.jpg\n    widths: []\n"), 0644))
	_, err = LoadRegistry(bad, root)
	assert.ErrorContains(t, err, "invalid asset spec")
}
