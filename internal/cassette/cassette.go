// Package cassette records evidence responses and plays them back, so that
// detective runs can be reproduced without network access.
//
// A cassette is a named list of URL → body interactions. Cassettes are
// stored as YAML files or in a SQLite Library.
package cassette

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a named cassette does not exist.
var ErrNotFound = errors.New("cassette: not found")

// Interaction is one recorded fetch.
type Interaction struct {
	URL        string    `yaml:"url" json:"url"`
	Body       string    `yaml:"body" json:"body"`
	RecordedAt time.Time `yaml:"recorded_at,omitempty" json:"recorded_at,omitempty"`
}

// Cassette is a named set of interactions. At most one interaction per URL
// is expected; Lookup returns the first.
type Cassette struct {
	Name         string        `yaml:"name" json:"name"`
	Interactions []Interaction `yaml:"interactions" json:"interactions"`
}

// Lookup returns the body recorded for url.
func (c *Cassette) Lookup(url string) (string, bool) {
	for _, i := range c.Interactions {
		if i.URL == url {
			return i.Body, true
		}
	}
	return "", false
}

// Parse decodes a YAML cassette.
func Parse(data []byte) (*Cassette, error) {
	var c Cassette
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse cassette: %w", err)
	}
	seen := make(map[string]bool, len(c.Interactions))
	for i, in := range c.Interactions {
		if in.URL == "" {
			return nil, fmt.Errorf("parse cassette: interaction %d has no url", i)
		}
		if seen[in.URL] {
			return nil, fmt.Errorf("parse cassette: duplicate url %q", in.URL)
		}
		seen[in.URL] = true
	}
	return &c, nil
}

// Load reads a YAML cassette from path. A cassette without a name takes the
// file's base name.
func Load(path string) (*Cassette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cassette: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		base := filepath.Base(path)
		c.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	return c, nil
}

// Save writes c to path as YAML, creating the parent directory.
func (c *Cassette) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cassette: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cassette dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write cassette: %w", err)
	}
	return nil
}
