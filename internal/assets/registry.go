package assets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Registry is an immutable, ordered set of AssetSpecs.
type Registry struct {
	specs []AssetSpec
}

// NewRegistry validates the specs and returns a registry holding private copies of them.
func NewRegistry(specs ...AssetSpec) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	out := make([]AssetSpec, 0, len(specs))

	for i, s := range specs {
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("invalid asset spec %d (%q): %w", i, s.Name, err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate asset spec name %q", s.Name)
		}
		seen[s.Name] = true
		out = append(out, s.normalize())
	}

	return &Registry{specs: out}, nil
}

// DefaultRegistry returns the compiled-in landing page assets rooted at root.
func DefaultRegistry(root string) *Registry {
	reg, err := NewRegistry(
		AssetSpec{
			Name:       "teacher",
			SourcePath: filepath.Join(root, "photo_2023-02-05_21-22-56.jpg"),
			OutputDir:  root,
			Widths:     []int{320, 420, 600},
		},
		AssetSpec{
			Name:       "hero",
			SourcePath: filepath.Join(root, "assets", "hero", "hero-a-plus.webp"),
			OutputDir:  filepath.Join(root, "assets", "hero"),
			Widths:     []int{560, 800},
		},
	)
	if err != nil {
		panic(err)
	}
	return reg
}

// Specs returns a copy of the registered specs in registry order.
func (r *Registry) Specs() []AssetSpec {
	out := make([]AssetSpec, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.clone()
	}
	return out
}

// Len returns the number of specs.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Lookup finds a spec by name.
func (r *Registry) Lookup(name string) (AssetSpec, bool) {
	for _, s := range r.specs {
		if s.Name == name {
			return s.clone(), true
		}
	}
	return AssetSpec{}, false
}

// Filter returns a registry restricted to the named specs, keeping registry order.
// An empty list returns r unchanged.
func (r *Registry) Filter(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if _, ok := r.Lookup(n); !ok {
			return nil, fmt.Errorf("unknown asset spec %q", n)
		}
		want[n] = true
	}

	var out []AssetSpec
	for _, s := range r.specs {
		if want[s.Name] {
			out = append(out, s.clone())
		}
	}
	return &Registry{specs: out}, nil
}

// OutputDirs returns the distinct output directories in first-use order.
func (r *Registry) OutputDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, s := range r.specs {
		if !seen[s.OutputDir] {
			seen[s.OutputDir] = true
			dirs = append(dirs, s.OutputDir)
		}
	}
	return dirs
}

// SourceFor returns the spec whose source path matches path.
func (r *Registry) SourceFor(path string) (AssetSpec, bool) {
	clean := filepath.Clean(path)
	for _, s := range r.specs {
		if filepath.Clean(s.SourcePath) == clean {
			return s.clone(), true
		}
	}
	return AssetSpec{}, false
}

type registryFile struct {
	Specs []AssetSpec `yaml:"specs"`
}

// LoadRegistry reads a YAML registry file. Relative source and output paths
// are resolved against root.
func LoadRegistry(path, root string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}
	if len(file.Specs) == 0 {
		return nil, fmt.Errorf("registry file %s defines no specs", path)
	}

	for i := range file.Specs {
		file.Specs[i].SourcePath = resolve(root, file.Specs[i].SourcePath)
		file.Specs[i].OutputDir = resolve(root, file.Specs[i].OutputDir)
	}

	slog.Debug("Loaded registry file", "path", path, "specs", len(file.Specs))
	return NewRegistry(file.Specs...)
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
