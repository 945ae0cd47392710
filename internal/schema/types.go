// Package schema compiles organized steps into the portable form schema
// consumed by the rendering client, and validates compiled schemas against
// the wire contract.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RepeatableType is the type tag of a repeatable group on the wire
const RepeatableType = "Repeatable"

// Schema is the compiled form
type Schema struct {
	DocumentID string         `json:"documentId"`
	Data       []CompiledStep `json:"data"`
}

// CompiledStep is one step of the compiled form
type CompiledStep struct {
	Title  string          `json:"title"`
	Fields []CompiledField `json:"fields"`
}

// FormField is a single input of the compiled form
type FormField struct {
	Key         string   `json:"key"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Value       any      `json:"value"`
	Required    bool     `json:"required"`
	Order       int      `json:"order"`
	Options     []string `json:"options"`
	FieldTypeID string   `json:"field_type_id"`
	FullTagName string   `json:"full_tag_name"`
}

// RepeatableField is a dotted group compiled into one composite field whose
// records repeat
type RepeatableField struct {
	Type   string           `json:"type"`
	Label  string           `json:"label"`
	Key    string           `json:"key"`
	Fields []FormField      `json:"fields"`
	Value  []map[string]any `json:"value,omitempty"`
}

// FieldKind discriminates CompiledField
type FieldKind int

const (
	KindStandalone FieldKind = iota
	KindRepeatable
)

// String returns a string representation of the FieldKind
func (k FieldKind) String() string {
	switch k {
	case KindStandalone:
		return "standalone"
	case KindRepeatable:
		return "repeatable"
	default:
		return "unknown"
	}
}

// CompiledField is either a standalone FormField or a RepeatableField. Only
// the payload matching Kind is set.
type CompiledField struct {
	Kind       FieldKind
	Standalone *FormField
	Repeatable *RepeatableField
}

// Standalone wraps a FormField
func Standalone(f FormField) CompiledField {
	return CompiledField{Kind: KindStandalone, Standalone: &f}
}

// Repeatable wraps a RepeatableField
func Repeatable(r RepeatableField) CompiledField {
	r.Type = RepeatableType
	return CompiledField{Kind: KindRepeatable, Repeatable: &r}
}

// Key returns the key of whichever payload is set
func (f CompiledField) Key() string {
	switch {
	case f.Kind == KindRepeatable && f.Repeatable != nil:
		return f.Repeatable.Key
	case f.Standalone != nil:
		return f.Standalone.Key
	default:
		return ""
	}
}

// MarshalJSON encodes the payload alone, so the union is invisible on the wire
func (f CompiledField) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case KindStandalone:
		if f.Standalone == nil {
			return nil, fmt.Errorf("standalone field has no payload")
		}
		return json.Marshal(f.Standalone)
	case KindRepeatable:
		if f.Repeatable == nil {
			return nil, fmt.Errorf("repeatable field has no payload")
		}
		r := *f.Repeatable
		r.Type = RepeatableType
		return json.Marshal(r)
	default:
		return nil, fmt.Errorf("unknown field kind %d", f.Kind)
	}
}

// UnmarshalJSON decodes a wire field; objects typed "Repeatable" become
// repeatable fields
func (f *CompiledField) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if probe.Type == RepeatableType {
		var r RepeatableField
		if err := dec.Decode(&r); err != nil {
			return err
		}
		*f = CompiledField{Kind: KindRepeatable, Repeatable: &r}
		return nil
	}

	var ff FormField
	if err := dec.Decode(&ff); err != nil {
		return err
	}
	*f = CompiledField{Kind: KindStandalone, Standalone: &ff}
	return nil
}

// Field returns the first compiled field of the step with key, if any
func (s CompiledStep) Field(key string) (CompiledField, bool) {
	for _, f := range s.Fields {
		if f.Key() == key {
			return f, true
		}
	}
	return CompiledField{}, false
}
