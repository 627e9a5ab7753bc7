package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bootbench/internal/benchmark"
	"bootbench/internal/metrics"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the exported form of a run.
type Document struct {
	Run     *benchmark.Run   `json:"run" yaml:"run"`
	Metrics []metrics.Metric `json:"metrics" yaml:"metrics"`
}

// NewDocument pairs run with its reported metrics.
func NewDocument(run *benchmark.Run, prefix string) Document {
	return Document{Run: run, Metrics: benchmark.Metrics(run, prefix)}
}

// Write encodes doc to w in format.
func Write(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

// FormatFromPath picks the export format from a file extension. Anything but
// .yaml and .yml is JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// WriteFile exports doc to path in the format its extension names.
func WriteFile(path string, doc Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, doc, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
