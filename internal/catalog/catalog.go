// Package catalog loads the placeholder catalog and the field-type catalog
// the classifier and compiler resolve placeholders against. Catalogs come
// from YAML/JSON files, XLSX workbooks or a SQLite database.
package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

// Catalog holds previously registered placeholders and the known field types
type Catalog struct {
	Placeholders []placeholder.Placeholder `json:"placeholders" yaml:"placeholders"`
	FieldTypes   []placeholder.FieldType   `json:"field_types" yaml:"field_types"`
	// Generic is the generic list of the last resolution for the organization
	Generic []placeholder.Placeholder `json:"generic,omitempty" yaml:"generic,omitempty"`
}

// Types indexes the field-type catalog
func (c *Catalog) Types() placeholder.FieldTypes {
	if c == nil {
		return placeholder.NewFieldTypes(nil)
	}
	return placeholder.NewFieldTypes(c.FieldTypes)
}

// Empty reports whether the catalog carries no entries at all
func (c *Catalog) Empty() bool {
	return c == nil || (len(c.Placeholders) == 0 && len(c.FieldTypes) == 0 && len(c.Generic) == 0)
}

// normalize fills defaults a loaded catalog may leave unset
func (c *Catalog) normalize() {
	for _, list := range [][]placeholder.Placeholder{c.Placeholders, c.Generic} {
		for i := range list {
			list[i].FullTagName = strings.TrimSpace(list[i].FullTagName)
			if list[i].Options == nil {
				list[i].Options = []string{}
			}
			if list[i].Name == "" {
				list[i].Name = placeholder.Label(list[i].FullTagName)
			}
		}
	}
}

// Source provides a catalog
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
	// Describe names the source for diagnostics
	Describe() string
}

// GenericRecorder is implemented by sources that can remember the generic
// list of a resolution for later sessions
type GenericRecorder interface {
	RecordGeneric(ctx context.Context, generic []placeholder.Placeholder) error
}

// Open picks a source for path by its extension. An empty path yields an
// empty static catalog.
func Open(ctx context.Context, path string) (Source, error) {
	if path == "" {
		return Static(Catalog{}), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return NewFileSource(path), nil
	case ".xlsx":
		return NewXLSXSource(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}
}

type staticSource struct {
	catalog Catalog
}

// Static serves a fixed in-memory catalog
func Static(c Catalog) Source {
	c.normalize()
	return &staticSource{catalog: c}
}

func (s *staticSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := Catalog{
		Placeholders: placeholder.CloneAll(s.catalog.Placeholders),
		FieldTypes:   append([]placeholder.FieldType(nil), s.catalog.FieldTypes...),
		Generic:      placeholder.CloneAll(s.catalog.Generic),
	}
	return &out, nil
}

func (s *staticSource) Describe() string {
	return "static"
}
