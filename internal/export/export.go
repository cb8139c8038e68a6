// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes roadmap artifacts as JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Format names an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name. An empty name falls back to the
// extension of path, then to Text.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			return JSON, nil
		case ".yaml", ".yml":
			return YAML, nil
		}
		return Text, nil
	}
	switch f := Format(strings.ToLower(name)); f {
	case Text, JSON, YAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json, or yaml)", name)
}

// Encode writes v to w as JSON or YAML.
func Encode(w io.Writer, format Format, v any) error {
	var data []byte
	var err error
	switch format {
	case JSON:
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	case YAML:
		data, err = yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	default:
		return fmt.Errorf("format %q is not a structured encoding", format)
	}
	_, err = w.Write(data)
	return err
}

// WriteFile encodes v into path, creating parent directories.
func WriteFile(path string, format Format, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, format, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
