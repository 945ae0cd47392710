package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS field_types (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS placeholders (
	full_tag_name       TEXT NOT NULL,
	generic             INTEGER NOT NULL DEFAULT 0,
	placeholder_type_id TEXT NOT NULL DEFAULT '',
	field_type_id       TEXT NOT NULL DEFAULT '',
	field_type_name     TEXT NOT NULL DEFAULT '',
	name                TEXT NOT NULL DEFAULT '',
	required            INTEGER NOT NULL DEFAULT 0,
	options             TEXT NOT NULL DEFAULT '[]',
	ord                 INTEGER NOT NULL DEFAULT 0,
	position            INTEGER NOT NULL,
	PRIMARY KEY (full_tag_name, generic)
);`

// SQLiteStore keeps the catalog in a SQLite database. Besides serving the
// catalog it records the generic list of each resolution.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens, and if needed creates, a catalog database
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	// a single connection keeps writers serialized
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog database: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Describe names the database
func (s *SQLiteStore) Describe() string {
	return "sqlite:" + s.path
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the whole catalog
func (s *SQLiteStore) Load(ctx context.Context) (*Catalog, error) {
	var c Catalog

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM field_types ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query field types: %w", err)
	}
	for rows.Next() {
		var t placeholder.FieldType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan field type: %w", err)
		}
		c.FieldTypes = append(c.FieldTypes, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	all, err := s.queryPlaceholders(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range all {
		if row.generic {
			c.Generic = append(c.Generic, row.Placeholder)
			continue
		}
		c.Placeholders = append(c.Placeholders, row.Placeholder)
	}

	c.normalize()
	return &c, nil
}

type placeholderRow struct {
	placeholder.Placeholder
	generic bool
}

func (s *SQLiteStore) queryPlaceholders(ctx context.Context) ([]placeholderRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT full_tag_name, generic, placeholder_type_id, field_type_id, field_type_name,
		       name, required, options, ord
		FROM placeholders
		ORDER BY generic, position`)
	if err != nil {
		return nil, fmt.Errorf("query placeholders: %w", err)
	}
	defer rows.Close()

	var out []placeholderRow
	for rows.Next() {
		var (
			row           placeholderRow
			fieldTypeName string
			options       string
		)
		if err := rows.Scan(
			&row.FullTagName, &row.generic, &row.PlaceholderTypeID, &row.FieldTypeID, &fieldTypeName,
			&row.Name, &row.Required, &options, &row.Order,
		); err != nil {
			return nil, fmt.Errorf("scan placeholder: %w", err)
		}
		if fieldTypeName != "" {
			row.FieldType = &placeholder.FieldTypeRef{ID: row.FieldTypeID, Name: fieldTypeName}
		}
		if err := json.Unmarshal([]byte(options), &row.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", row.FullTagName, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Save replaces the stored catalog with c
func (s *SQLiteStore) Save(ctx context.Context, c *Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM field_types`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM placeholders`); err != nil {
		return err
	}
	for i, t := range c.FieldTypes {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO field_types (id, name, position) VALUES (?, ?, ?)`,
			t.ID, t.Name, i); err != nil {
			return fmt.Errorf("insert field type %s: %w", t.ID, err)
		}
	}
	if err := insertPlaceholders(ctx, tx, c.Placeholders, false); err != nil {
		return err
	}
	if err := insertPlaceholders(ctx, tx, c.Generic, true); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordGeneric replaces the stored generic list
func (s *SQLiteStore) RecordGeneric(ctx context.Context, generic []placeholder.Placeholder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM placeholders WHERE generic = 1`); err != nil {
		return err
	}
	if err := insertPlaceholders(ctx, tx, generic, true); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPlaceholders(ctx context.Context, tx *sql.Tx, list []placeholder.Placeholder, generic bool) error {
	for i, p := range list {
		options := p.Options
		if options == nil {
			options = []string{}
		}
		encoded, err := json.Marshal(options)
		if err != nil {
			return err
		}
		fieldTypeName := ""
		if p.FieldType != nil {
			fieldTypeName = p.FieldType.Name
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO placeholders
				(full_tag_name, generic, placeholder_type_id, field_type_id, field_type_name,
				 name, required, options, ord, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.FullTagName, generic, p.PlaceholderTypeID, p.FieldTypeID, fieldTypeName,
			p.Name, p.Required, string(encoded), p.Order, i,
		); err != nil {
			return fmt.Errorf("insert placeholder %s: %w", p.FullTagName, err)
		}
	}
	return nil
}
