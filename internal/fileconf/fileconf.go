// Package fileconf decodes the YAML or JSON registry files read at startup.
package fileconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned when no decoder accepts the file content.
var ErrUnknownFormat = errors.New("format not recognized (expected YAML or JSON)")

type format struct {
	name   string
	exts   []string
	decode func([]byte, any) error
}

var formats = []format{
	{name: "yaml", exts: []string{".yaml", ".yml"}, decode: yaml.Unmarshal},
	{name: "json", exts: []string{".json"}, decode: json.Unmarshal},
}

// Load reads path and decodes it into out. The extension picks the format;
// files without a known extension are tried as YAML, then JSON. kind names
// the file in error messages, e.g. "watches".
func Load(path, kind string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%s file path is empty", kind)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s file: %w", kind, err)
	}
	return Decode(raw, filepath.Ext(path), kind, out)
}

// Decode decodes data using the format implied by ext.
func Decode(data []byte, ext, kind string, out any) error {
	ext = strings.ToLower(strings.TrimSpace(ext))

	candidates := formats
	for _, f := range formats {
		for _, e := range f.exts {
			if e == ext {
				candidates = []format{f}
			}
		}
	}

	var lastErr error
	for _, f := range candidates {
		if err := f.decode(data, out); err != nil {
			lastErr = fmt.Errorf("decode %s %s: %w", f.name, kind, err)
			continue
		}
		return nil
	}
	if len(candidates) == 1 && lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("%s file: %w", kind, ErrUnknownFormat)
}
