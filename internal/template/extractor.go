package template

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// tokenPattern matches {{...}} before falling back to {...}; neither form nests
// and neither may contain another brace.
var tokenPattern = regexp.MustCompile(`\{\{[^{}]*\}\}|\{[^{}]*\}`)

// Token is one placeholder occurrence found in a template
type Token struct {
	Value string   `json:"value"`
	Part  string   `json:"part"`
	Kind  PartKind `json:"kind"`
}

// Extraction is the outcome of scanning a document
type Extraction struct {
	Tokens     []Token          `json:"tokens"`
	FormFields []FormField      `json:"form_fields,omitempty"`
	Scanned    int              `json:"scanned_parts"`
	Problems   *ErrorCollection `json:"problems"`
}

// Values returns the token strings in first-seen order, duplicates included
func (e *Extraction) Values() []string {
	out := make([]string, 0, len(e.Tokens))
	for _, t := range e.Tokens {
		out = append(out, t.Value)
	}
	return out
}

// ValuesOf returns the token strings found in parts of the given kinds
func (e *Extraction) ValuesOf(kinds ...PartKind) []string {
	want := make(map[PartKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	out := make([]string, 0)
	for _, t := range e.Tokens {
		if want[t.Kind] {
			out = append(out, t.Value)
		}
	}
	return out
}

// Extractor scans template parts for placeholder tokens
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an extractor; a nil logger discards log output
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract scans every part independently and concatenates the tokens in
// document order. A part that is not well-formed markup contributes nothing
// and is reported as a warning.
func (x *Extractor) Extract(doc *Document) (*Extraction, error) {
	if doc == nil || (len(doc.Parts) == 0 && len(doc.FormFields) == 0) {
		return nil, NewTemplateError(ErrorTypeNoParts,
			"the template has no readable content to scan for placeholders")
	}

	result := &Extraction{
		Tokens:   make([]Token, 0),
		Problems: NewErrorCollection(),
	}
	if doc.Problems != nil {
		for _, w := range doc.Problems.Warnings {
			result.Problems.Add(w)
		}
	}

	for _, part := range doc.Parts {
		text := string(part.Content)
		if part.Markup {
			var err error
			text, err = MarkupText(part.Content)
			if err != nil {
				x.logger.Warn("skipping unreadable template part",
					zap.String("document", doc.Name),
					zap.String("part", part.Name),
					zap.Error(err))
				result.Problems.Add(WrapError(ErrorTypeMalformedPart, err).WithPart(part.Name))
				continue
			}
		}
		result.Scanned++
		for _, value := range ScanTokens(text) {
			result.Tokens = append(result.Tokens, Token{Value: value, Part: part.Name, Kind: part.Kind})
		}
	}

	result.FormFields = append(result.FormFields, doc.FormFields...)
	if result.Scanned == 0 && len(result.FormFields) == 0 {
		return nil, NewTemplateError(ErrorTypeNoParts,
			"none of the template parts could be read").WithContext(doc.Name)
	}

	x.logger.Debug("extracted template tokens",
		zap.String("document", doc.Name),
		zap.Int("parts", result.Scanned),
		zap.Int("tokens", len(result.Tokens)),
		zap.Int("form_fields", len(result.FormFields)))
	return result, nil
}

// ScanTokens returns the placeholder names in text with their delimiters
// stripped. Empty placeholders are skipped.
func ScanTokens(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if v := StripDelimiters(m); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// StripDelimiters removes the outer {{ }} or { } of a token
func StripDelimiters(token string) string {
	switch {
	case strings.HasPrefix(token, "{{") && strings.HasSuffix(token, "}}") && len(token) >= 4:
		token = token[2 : len(token)-2]
	case strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}") && len(token) >= 2:
		token = token[1 : len(token)-1]
	}
	return strings.TrimSpace(token)
}

// MarkupText reduces a WordprocessingML part to its visible text. Runs are
// concatenated so a token split over several runs is whole again, and every
// paragraph ends with a newline.
func MarkupText(content []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var (
		builder strings.Builder
		inText  int
		seen    bool
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed markup: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			seen = true
			switch el.Name.Local {
			case "t":
				inText++
			case "tab":
				builder.WriteByte('\t')
			case "br", "cr":
				builder.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				if inText > 0 {
					inText--
				}
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inText > 0 {
				builder.Write(el)
			}
		}
	}
	if !seen {
		return "", errors.New("malformed markup: no elements found")
	}
	return builder.String(), nil
}
