package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

// Sheet names of a catalog workbook
const (
	SheetPlaceholders = "placeholders"
	SheetFieldTypes   = "field_types"
	SheetGeneric      = "generic"
)

// OptionSeparator joins option values inside one spreadsheet cell
const OptionSeparator = "|"

var placeholderColumns = []string{
	"full_tag_name",
	"placeholder_type_id",
	"field_type_id",
	"name",
	"required",
	"options",
	"order",
}

// XLSXSource reads a catalog maintained as a spreadsheet. The placeholders
// and generic sheets use the placeholderColumns header; field_types uses
// id and name. Columns are matched by header, ignoring case and order.
type XLSXSource struct {
	path string
}

// NewXLSXSource creates a source for an .xlsx workbook
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

// Load reads the workbook
func (s *XLSXSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog workbook: %w", err)
	}
	return ReadXLSX(bytes.NewReader(data))
}

// Describe names the workbook
func (s *XLSXSource) Describe() string {
	return "xlsx:" + s.path
}

// ReadXLSX decodes a catalog workbook
func ReadXLSX(r io.Reader) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	defer f.Close()

	var c Catalog
	if c.Placeholders, err = readPlaceholderSheet(f, SheetPlaceholders); err != nil {
		return nil, err
	}
	if c.Generic, err = readPlaceholderSheet(f, SheetGeneric); err != nil {
		return nil, err
	}

	rows, err := sheetRows(f, SheetFieldTypes)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		id := strings.TrimSpace(row["id"])
		if id == "" {
			continue
		}
		c.FieldTypes = append(c.FieldTypes, placeholder.FieldType{
			ID:   id,
			Name: strings.TrimSpace(row["name"]),
		})
	}

	c.normalize()
	return &c, nil
}

// WriteXLSX renders a catalog as a workbook that ReadXLSX accepts
func WriteXLSX(c *Catalog, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writePlaceholderSheet(f, SheetPlaceholders, c.Placeholders); err != nil {
		return err
	}
	if len(c.Generic) > 0 {
		if err := writePlaceholderSheet(f, SheetGeneric, c.Generic); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetFieldTypes); err != nil {
		return err
	}
	_ = f.SetSheetRow(SheetFieldTypes, "A1", &[]any{"id", "name"})
	for i, t := range c.FieldTypes {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetFieldTypes, cell, &[]any{t.ID, t.Name}); err != nil {
			return err
		}
	}

	// NewFile starts with a default sheet the catalog does not use
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetPlaceholders)
	f.SetActiveSheet(activeIndex)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writePlaceholderSheet(f *excelize.File, sheet string, list []placeholder.Placeholder) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := make([]any, len(placeholderColumns))
	for i, col := range placeholderColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range list {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			p.FullTagName,
			p.PlaceholderTypeID,
			p.FieldTypeID,
			p.Name,
			p.Required,
			strings.Join(p.Options, OptionSeparator),
			p.Order,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "D", "D", 24)
	_ = f.SetColWidth(sheet, "F", "F", 36)
	return nil
}

func readPlaceholderSheet(f *excelize.File, sheet string) ([]placeholder.Placeholder, error) {
	rows, err := sheetRows(f, sheet)
	if err != nil {
		return nil, err
	}

	var out []placeholder.Placeholder
	for _, row := range rows {
		tag := strings.TrimSpace(row["full_tag_name"])
		if tag == "" {
			continue
		}
		order, _ := strconv.Atoi(strings.TrimSpace(row["order"]))
		out = append(out, placeholder.Placeholder{
			FullTagName:       tag,
			PlaceholderTypeID: strings.TrimSpace(row["placeholder_type_id"]),
			FieldTypeID:       strings.TrimSpace(row["field_type_id"]),
			Name:              strings.TrimSpace(row["name"]),
			Required:          parseBool(row["required"]),
			Options:           splitOptions(row["options"]),
			Order:             order,
		})
	}
	return out, nil
}

// sheetRows returns the data rows of a sheet keyed by lower-cased header. A
// missing sheet has no rows.
func sheetRows(f *excelize.File, sheet string) ([]map[string]string, error) {
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, cell := range row {
			if i < len(header) && header[i] != "" {
				m[header[i]] = cell
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s == "yes" || s == "y" || s == "x"
}

func splitOptions(s string) []string {
	out := []string{}
	for _, o := range strings.Split(s, OptionSeparator) {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
