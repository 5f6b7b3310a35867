package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Definition Serialization API
// =============================================================================

// Marshal encodes a definition as indented JSON.
func Marshal(def Definition) ([]byte, error) {
	return json.MarshalIndent(def, "", "  ")
}

// MarshalYAML encodes a definition as YAML.
func MarshalYAML(def Definition) ([]byte, error) {
	return yaml.Marshal(def)
}

// Unmarshal decodes a JSON definition without validating it.
func Unmarshal(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("decode: %w", err)
	}
	return def, nil
}

// Write encodes def as indented JSON to w.
func Write(def Definition, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes def to path. Files ending in .yaml or .yml are written
// as YAML, everything else as JSON.
func WriteFile(def Definition, path string) error {
	var (
		data []byte
		err  error
	)
	if IsYAMLPath(path) {
		data, err = MarshalYAML(def)
	} else {
		data, err = Marshal(def)
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads and imports the graph at path, picking the decoder from
// the file extension.
func ReadFile(path string, opts ImportOptions) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if IsYAMLPath(path) {
		return ImportYAML(data, opts)
	}
	return Import(data, opts)
}

// Read imports a JSON graph from r.
func Read(r io.Reader, opts ImportOptions) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Import(data, opts)
}

// IsYAMLPath reports whether path has a YAML extension.
func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
