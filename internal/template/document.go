package template

import (
	"bytes"
	"fmt"
)

// Format identifies the packaging of a template
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// PartKind tells where in the document a part lives
type PartKind string

const (
	PartBody   PartKind = "body"
	PartHeader PartKind = "header"
	PartFooter PartKind = "footer"
	PartNotes  PartKind = "notes"
	PartPage   PartKind = "page"
)

// Part is one independently scanned piece of a template
type Part struct {
	Name    string   `json:"name"`
	Kind    PartKind `json:"kind"`
	Markup  bool     `json:"markup"` // XML content that must be reduced to text first
	Content []byte   `json:"-"`
}

// FormField is an interactive field declared by the template itself, such as
// an AcroForm field of a fillable PDF.
type FormField struct {
	Name     string   `json:"name"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// Document is a loaded template ready for token extraction
type Document struct {
	Name       string           `json:"name"`
	Format     Format           `json:"format"`
	Size       int64            `json:"size"`
	Parts      []Part           `json:"parts"`
	FormFields []FormField      `json:"form_fields,omitempty"`
	Revision   string           `json:"revision,omitempty"` // yyyy-MM-dd, empty when unknown
	Problems   *ErrorCollection `json:"-"`
}

var (
	zipMagic = []byte("PK\x03\x04")
	pdfMagic = []byte("%PDF")
)

// Load detects the template format from its content and splits it into parts.
// maxSize <= 0 disables the size check.
func Load(data []byte, name string, maxSize int64) (*Document, error) {
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, NewTemplateError(ErrorTypeTooLarge,
			fmt.Sprintf("template too large: %d bytes (max: %d bytes)", len(data), maxSize))
	}

	var (
		doc *Document
		err error
	)
	switch {
	case bytes.HasPrefix(data, zipMagic):
		doc, err = openDOCX(data)
	case bytes.HasPrefix(data, pdfMagic):
		doc, err = openPDF(data)
	default:
		return nil, NewTemplateError(ErrorTypeUnsupportedFormat,
			"template must be a Word document (.docx) or a PDF").WithContext(name)
	}
	if err != nil {
		return nil, err
	}

	doc.Name = name
	doc.Size = int64(len(data))
	if len(doc.Parts) == 0 && len(doc.FormFields) == 0 {
		return nil, NewTemplateError(ErrorTypeNoParts,
			"the template has no readable content to scan for placeholders").WithContext(name)
	}
	return doc, nil
}

func newDocument(format Format) *Document {
	return &Document{
		Format:   format,
		Parts:    make([]Part, 0),
		Problems: NewErrorCollection(),
	}
}
