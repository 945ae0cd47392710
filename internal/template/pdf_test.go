package template

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes the objects as 1 0 obj, 2 0 obj, ... followed by a
// cross-reference table with exact offsets. Object 1 must be the catalog.
func buildPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pdfStream(content string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
}

// fillablePDF has one page of text and an AcroForm with a nested choice field
// Company/Name and a text field Notes whose widget is a separate kid
func fillablePDF() []byte {
	return buildPDF(
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [6 0 R 8 0 R] >> >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R /Annots [7 0 R 9 0 R] >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		pdfStream("BT /F1 12 Tf 72 720 Td ({{Client}} signs on {SignDate}) Tj ET"),
		"<< /T (Company) /Kids [7 0 R] >>",
		"<< /Type /Annot /Subtype /Widget /Parent 6 0 R /T (Name) /FT /Ch /Ff 2 "+
			"/Opt [(Acme) [(b) (Beta)]] /Rect [72 600 272 620] /P 3 0 R >>",
		"<< /T (Notes) /FT /Tx /Kids [9 0 R] >>",
		"<< /Type /Annot /Subtype /Widget /Parent 8 0 R /Rect [72 560 272 580] /P 3 0 R >>",
	)
}

func TestLoad_PDFPagesAndFormFields(t *testing.T) {
	doc, err := Load(fillablePDF(), "application.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, doc.Format)

	require.Len(t, doc.Parts, 1)
	assert.Equal(t, "page 1", doc.Parts[0].Name)
	assert.Equal(t, PartPage, doc.Parts[0].Kind)
	assert.False(t, doc.Parts[0].Markup)

	require.Len(t, doc.FormFields, 2)
	company := doc.FormFields[0]
	assert.Equal(t, "Company.Name", company.Name)
	assert.True(t, company.Required)
	assert.Equal(t, []string{"Acme", "Beta"}, company.Options)

	notes := doc.FormFields[1]
	assert.Equal(t, "Notes", notes.Name)
	assert.False(t, notes.Required)
	assert.Empty(t, notes.Options)

	errs, warnings := doc.Problems.Count()
	assert.Zero(t, errs)
	assert.Zero(t, warnings)
}

func TestExtractor_PDF(t *testing.T) {
	doc, err := Load(fillablePDF(), "application.pdf", 0)
	require.NoError(t, err)

	extraction, err := NewExtractor(nil).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Client", "SignDate"}, extraction.ValuesOf(PartPage))
	assert.Equal(t, 1, extraction.Scanned)

	var names []string
	for _, f := range extraction.FormFields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Company.Name", "Notes"}, names)
}

func TestLoad_PDFWithoutAcroForm(t *testing.T) {
	data := buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		pdfStream("BT /F1 12 Tf 72 720 Td ({{Tenant.Name}}) Tj ET"),
	)

	doc, err := Load(data, "lease.pdf", 0)
	require.NoError(t, err)
	assert.Empty(t, doc.FormFields)

	extraction, err := NewExtractor(nil).Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tenant.Name"}, extraction.Values())
}
