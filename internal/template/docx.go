package template

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	docxBodyPart      = "word/document.xml"
	docxCorePropsPart = "docProps/core.xml"
	maxPartSize       = 32 * 1024 * 1024
)

var (
	headerPartPattern = regexp.MustCompile(`^word/header(\d*)\.xml$`)
	footerPartPattern = regexp.MustCompile(`^word/footer(\d*)\.xml$`)
	notesParts        = map[string]bool{
		"word/footnotes.xml": true,
		"word/endnotes.xml":  true,
	}
)

type rankedPart struct {
	part  Part
	rank  int
	index int
}

// openDOCX reads the word processing parts that can carry placeholders:
// the body first, then headers, footers and notes.
func openDOCX(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, WrapError(ErrorTypeInvalidArchive, err).
			WithContext("the file is not a valid Word document")
	}

	doc := newDocument(FormatDOCX)
	ranked := make([]rankedPart, 0)

	for _, f := range zr.File {
		kind, rank, index, ok := classifyDOCXPart(f.Name)
		if !ok {
			if f.Name == docxCorePropsPart {
				if content, err := readZipFile(f); err == nil {
					doc.Revision = revisionFromCoreProps(content)
				}
			}
			continue
		}

		content, err := readZipFile(f)
		if err != nil {
			doc.Problems.Add(WrapError(ErrorTypeMalformedPart, err).WithPart(f.Name))
			continue
		}
		ranked = append(ranked, rankedPart{
			part:  Part{Name: f.Name, Kind: kind, Markup: true, Content: content},
			rank:  rank,
			index: index,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].rank != ranked[j].rank {
			return ranked[i].rank < ranked[j].rank
		}
		return ranked[i].index < ranked[j].index
	})
	for _, rp := range ranked {
		doc.Parts = append(doc.Parts, rp.part)
	}
	return doc, nil
}

func classifyDOCXPart(name string) (PartKind, int, int, bool) {
	if name == docxBodyPart {
		return PartBody, 0, 0, true
	}
	if m := headerPartPattern.FindStringSubmatch(name); m != nil {
		return PartHeader, 1, partNumber(m[1]), true
	}
	if m := footerPartPattern.FindStringSubmatch(name); m != nil {
		return PartFooter, 2, partNumber(m[1]), true
	}
	if notesParts[name] {
		if strings.Contains(name, "footnotes") {
			return PartNotes, 3, 0, true
		}
		return PartNotes, 3, 1, true
	}
	return "", 0, 0, false
}

func partNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func readZipFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxPartSize {
		return nil, fmt.Errorf("part %s exceeds %d bytes", f.Name, maxPartSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", f.Name, err)
	}
	return content, nil
}

type coreProperties struct {
	Modified string `xml:"modified"`
	Created  string `xml:"created"`
}

func revisionFromCoreProps(content []byte) string {
	var props coreProperties
	if err := xml.Unmarshal(content, &props); err != nil {
		return ""
	}
	if rev := ParseRevisionDate(props.Modified); rev != "" {
		return rev
	}
	return ParseRevisionDate(props.Created)
}

// ParseRevisionDate normalizes a W3CDTF timestamp to yyyy-MM-dd. Anything it
// cannot parse yields an empty string.
func ParseRevisionDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
