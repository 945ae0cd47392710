package template

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// openPDF turns every page of a PDF template into a plain text part and
// collects the names of its interactive form fields.
func openPDF(data []byte) (*Document, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, WrapError(ErrorTypeInvalidArchive, err).
			WithContext("the file is not a readable PDF")
	}

	doc := newDocument(FormatPDF)
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		name := fmt.Sprintf("page %d", pageNum)
		text, err := pageText(pdfReader, pageNum)
		if err != nil {
			// Continue with other pages even if one fails
			doc.Problems.Add(WrapError(ErrorTypeUnreadablePage, err).WithPart(name))
			continue
		}
		doc.Parts = append(doc.Parts, Part{Name: name, Kind: PartPage, Content: []byte(text)})
	}

	fields, err := extractFormFields(bytes.NewReader(data))
	if err != nil {
		doc.Problems.Add(WrapError(ErrorTypeInvalidFormFields, err).WithPart("acroform"))
	} else {
		doc.FormFields = fields
	}
	return doc, nil
}

func pageText(pdfReader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d could not be decoded: %v", pageNum, r)
		}
	}()

	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is missing", pageNum)
	}
	return page.GetPlainText(nil)
}
