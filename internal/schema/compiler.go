package schema

import (
	"strings"
	"time"

	"github.com/a3tai/mcp-template-forms/internal/organizer"
	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

const (
	DefaultLogoURL      = "https://placehold.co/200x80?text=Logo"
	DefaultSignatureURL = "https://placehold.co/300x100?text=Signature"

	// ExampleText is the preview value of text-like fields without options
	ExampleText = "Example Text"
	// ExampleNumber is the preview value of Number fields
	ExampleNumber = 123

	// DateLayout formats preview dates as ISO calendar dates
	DateLayout = "2006-01-02"

	// previewRecords is the number of synthetic records of a repeatable group
	previewRecords = 2
)

// Options configures a Compiler
type Options struct {
	FieldTypes   placeholder.FieldTypes
	LogoURL      string
	SignatureURL string
	// Clock supplies today's date for Date examples; time.Now when nil
	Clock func() time.Time
}

// Compiler turns organized steps into a Schema. It holds no state besides
// its options and is safe for concurrent use.
type Compiler struct {
	fieldTypes   placeholder.FieldTypes
	logoURL      string
	signatureURL string
	clock        func() time.Time
}

// NewCompiler creates a compiler, filling unset options with defaults
func NewCompiler(opts Options) *Compiler {
	c := &Compiler{
		fieldTypes:   opts.FieldTypes,
		logoURL:      opts.LogoURL,
		signatureURL: opts.SignatureURL,
		clock:        opts.Clock,
	}
	if c.logoURL == "" {
		c.logoURL = DefaultLogoURL
	}
	if c.signatureURL == "" {
		c.signatureURL = DefaultSignatureURL
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

// Compile builds the schema for documentID. In preview mode every value is a
// synthesized example; otherwise values are the operator-entered ones.
func (c *Compiler) Compile(documentID string, steps []organizer.Step, preview bool) Schema {
	out := Schema{
		DocumentID: documentID,
		Data:       make([]CompiledStep, 0, len(steps)),
	}
	today := c.clock().Format(DateLayout)
	for _, step := range steps {
		out.Data = append(out.Data, c.compileStep(step, preview, today))
	}
	return out
}

func (c *Compiler) compileStep(step organizer.Step, preview bool, today string) CompiledStep {
	fields := make([]CompiledField, 0, len(step.Fields))

	// Repeatable groups follow all standalone fields, in order of first member
	var groupOrder []string
	groups := make(map[string][]placeholder.Placeholder)
	for _, p := range step.Fields {
		if !p.IsGrouped() {
			fields = append(fields, Standalone(c.formField(p, p.FullTagName, preview, today)))
			continue
		}
		group := p.Group()
		if _, ok := groups[group]; !ok {
			groupOrder = append(groupOrder, group)
		}
		groups[group] = append(groups[group], p)
	}

	for _, group := range groupOrder {
		fields = append(fields, Repeatable(c.repeatable(group, groups[group], preview, today)))
	}

	return CompiledStep{Title: step.Title, Fields: fields}
}

func (c *Compiler) repeatable(group string, members []placeholder.Placeholder, preview bool, today string) RepeatableField {
	r := RepeatableField{
		Type:   RepeatableType,
		Label:  group,
		Key:    group,
		Fields: make([]FormField, 0, len(members)),
	}
	for _, p := range members {
		r.Fields = append(r.Fields, c.formField(p, p.Member(), preview, today))
	}

	if preview && len(r.Fields) > 0 {
		r.Value = make([]map[string]any, previewRecords)
		for i := range r.Value {
			record := make(map[string]any, len(members))
			for j, p := range members {
				record[r.Fields[j].Key] = c.example(p, r.Fields[j].Type, today)
			}
			r.Value[i] = record
		}
	}
	return r
}

func (c *Compiler) formField(p placeholder.Placeholder, key string, preview bool, today string) FormField {
	typeName := c.fieldTypes.Resolve(p)
	f := FormField{
		Key:         key,
		Type:        typeName,
		Label:       placeholder.Humanize(key),
		Required:    p.Required,
		Order:       p.Order,
		Options:     nonNilOptions(p.Options),
		FieldTypeID: p.FieldTypeID,
		FullTagName: p.FullTagName,
	}
	if preview {
		f.Value = c.example(p, typeName, today)
	} else {
		f.Value = p.Value
	}
	return f
}

// Example synthesizes the preview value of a placeholder of the given type
func (c *Compiler) Example(p placeholder.Placeholder) any {
	return c.example(p, c.fieldTypes.Resolve(p), c.clock().Format(DateLayout))
}

func (c *Compiler) example(p placeholder.Placeholder, typeName, today string) any {
	switch {
	case strings.EqualFold(typeName, placeholder.TypeNumber):
		return ExampleNumber
	case strings.EqualFold(typeName, placeholder.TypeDate):
		return today
	case strings.EqualFold(typeName, placeholder.TypeImage):
		if strings.Contains(strings.ToLower(p.FullTagName), "logo") {
			return c.logoURL
		}
		return c.signatureURL
	case len(p.Options) > 0:
		return p.Options[0]
	default:
		return ExampleText
	}
}

func nonNilOptions(options []string) []string {
	out := make([]string, len(options))
	copy(out, options)
	return out
}
