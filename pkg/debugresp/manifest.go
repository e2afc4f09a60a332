package debugresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stub maps a stub id to the resource holding its body.
type Stub struct {
	ID         string `json:"id" yaml:"id"`
	Resource   string `json:"resource" yaml:"resource"`
	StatusCode int    `json:"status" yaml:"status"`
}

type manifestFile struct {
	Stubs []Stub `json:"stubs" yaml:"stubs"`
}

// Manifest indexes stubs by id.
type Manifest struct {
	idx map[string]Stub
}

// LoadManifest reads a YAML or JSON stub manifest.
func LoadManifest(path string) (*Manifest, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("stubs file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stubs file: %w", err)
	}
	return ParseManifest(raw, filepath.Ext(path))
}

// ParseManifest decodes manifest content. An empty ext tries YAML then JSON.
func ParseManifest(data []byte, ext string) (*Manifest, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var (
		file    manifestFile
		decoded bool
	)
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var candidate manifestFile
		if err := d.fn(data, &candidate); err == nil {
			file, decoded = candidate, true
			break
		}
	}
	if !decoded {
		return nil, errors.New("stubs file format not recognized (expected YAML or JSON)")
	}

	m := &Manifest{idx: make(map[string]Stub, len(file.Stubs))}
	for i, s := range file.Stubs {
		s.ID = strings.TrimSpace(s.ID)
		s.Resource = strings.TrimSpace(s.Resource)
		if s.ID == "" {
			return nil, fmt.Errorf("stubs[%d]: id is required", i)
		}
		if s.Resource == "" {
			s.Resource = s.ID
		}
		if s.StatusCode != 0 && (s.StatusCode < 100 || s.StatusCode > 599) {
			return nil, fmt.Errorf("stubs[%d]: invalid status %d", i, s.StatusCode)
		}
		if _, exists := m.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate stub id %q", s.ID)
		}
		m.idx[s.ID] = s
	}
	return m, nil
}

// Lookup returns the stub registered under id.
func (m *Manifest) Lookup(id string) (Stub, bool) {
	if m == nil {
		return Stub{}, false
	}
	s, ok := m.idx[id]
	return s, ok
}

// Len reports the number of stubs.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.idx)
}
