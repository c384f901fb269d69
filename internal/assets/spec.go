package assets

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Ext is the extension of every generated derivative (WebP).
const Ext = ".webp"

// AssetSpec describes one source image and the widths to derive from it.
type AssetSpec struct {
	Name       string `yaml:"name" validate:"required"`
	SourcePath string `yaml:"source" validate:"required"`
	OutputDir  string `yaml:"output_dir"`
	BaseName   string `yaml:"base_name"`
	Widths     []int  `yaml:"widths" validate:"min=1,dive,gt=0"`
}

// OutputPath returns {OutputDir}/{BaseName}-{width}.webp.
// A width of 0 means a native-resolution re-encode, written as {BaseName}.webp.
func (s AssetSpec) OutputPath(width int) string {
	if width <= 0 {
		return filepath.Join(s.OutputDir, s.BaseName+Ext)
	}
	return filepath.Join(s.OutputDir, fmt.Sprintf("%s-%d%s", s.BaseName, width, Ext))
}

// OutputPaths lists the derivative paths in width order.
func (s AssetSpec) OutputPaths() []string {
	paths := make([]string, 0, len(s.Widths))
	for _, w := range s.Widths {
		paths = append(paths, s.OutputPath(w))
	}
	return paths
}

// BaseNameOf strips directory and extension from a source path.
func BaseNameOf(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalize fills in derived fields and detaches the widths slice from the caller.
func (s AssetSpec) normalize() AssetSpec {
	if s.BaseName == "" {
		s.BaseName = BaseNameOf(s.SourcePath)
	}
	if s.OutputDir == "" {
		s.OutputDir = filepath.Dir(s.SourcePath)
	}
	s.Widths = append([]int(nil), s.Widths...)
	return s
}

func (s AssetSpec) clone() AssetSpec {
	s.Widths = append([]int(nil), s.Widths...)
	return s
}
