package manifest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Entry statuses.
const (
	StatusGenerated = "generated"
	StatusFresh     = "fresh"
	StatusSkipped   = "skipped"
)

// Entry is one row of a run manifest: a derivative, or a skipped spec.
type Entry struct {
	Spec         string `yaml:"spec" parquet:"spec"`
	Status       string `yaml:"status" parquet:"status"`
	Source       string `yaml:"source" parquet:"source"`
	OutputPath   string `yaml:"output_path,omitempty" parquet:"output_path"`
	TargetWidth  int    `yaml:"target_width,omitempty" parquet:"target_width"`
	SourceWidth  int    `yaml:"source_width,omitempty" parquet:"source_width"`
	SourceHeight int    `yaml:"source_height,omitempty" parquet:"source_height"`
	Width        int    `yaml:"width,omitempty" parquet:"width"`
	Height       int    `yaml:"height,omitempty" parquet:"height"`
	Bytes        int64  `yaml:"bytes,omitempty" parquet:"bytes"`
}

// Settings records the encoder configuration of a run.
type Settings struct {
	Quality     int    `yaml:"quality"`
	Method      int    `yaml:"method"`
	Incremental bool   `yaml:"incremental"`
	Timestamp   string `yaml:"timestamp"`
}

// Manifest is the full record of a generation run.
// Parquet manifests carry only the entries.
type Manifest struct {
	Settings Settings `yaml:"settings"`
	Entries  []Entry  `yaml:"entries"`
}

// Write saves m to path, choosing the format from the extension.
func Write(path string, m *Manifest) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return writeYAML(path, m)
	case ".parquet":
		return writeParquet(path, m.Entries)
	default:
		return fmt.Errorf("unsupported manifest format: %s (supported: .yaml, .yml, .parquet)", ext)
	}
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return readYAML(path)
	case ".parquet":
		entries, err := readParquet(path)
		if err != nil {
			return nil, err
		}
		return &Manifest{Entries: entries}, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .yaml, .yml, .parquet)", ext)
	}
}

func writeYAML(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	slog.Debug("Wrote YAML manifest", "path", path, "entries", len(m.Entries))
	return nil
}

func readYAML(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

func writeParquet(path string, entries []Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Entry](file)
	if _, err := writer.Write(entries); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote parquet manifest", "path", path, "rows", len(entries))
	return file.Close()
}

func readParquet(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Entry](pf)
	defer reader.Close()

	var entries []Entry
	rows := make([]Entry, 64)
	for {
		n, err := reader.Read(rows)
		entries = append(entries, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return entries, nil
}
