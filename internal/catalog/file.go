package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads a catalog from a YAML or JSON document
type FileSource struct {
	path string
}

// NewFileSource creates a source for a YAML or JSON file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and decodes the file on every call, so edits are picked up
// without a restart
func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Decode(data)
}

// Describe names the file
func (s *FileSource) Describe() string {
	return "file:" + s.path
}

// Decode parses a YAML or JSON catalog document
func Decode(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	c.normalize()
	return &c, nil
}

// Encode renders a catalog as YAML
func Encode(c *Catalog) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return data, nil
}
