// Package placeholder turns raw template tokens into placeholder records,
// merges and deduplicates them, and classifies them against the placeholder
// catalog into organization-wide generic data and document specific input.
package placeholder

import "strings"

// GroupSeparator splits a full tag name into group and member
const GroupSeparator = "."

// FieldTypeRef is a nested type descriptor carried by catalog entries
type FieldTypeRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Placeholder is a field discovered in, or catalogued for, a document template
type Placeholder struct {
	FullTagName       string        `json:"full_tag_name" yaml:"full_tag_name"`
	PlaceholderTypeID string        `json:"placeholder_type_id" yaml:"placeholder_type_id"`
	FieldTypeID       string        `json:"field_type_id" yaml:"field_type_id"`
	FieldType         *FieldTypeRef `json:"field_type,omitempty" yaml:"field_type,omitempty"`
	Name              string        `json:"name" yaml:"name"`
	Required          bool          `json:"required" yaml:"required"`
	Options           []string      `json:"options" yaml:"options"`
	Order             int           `json:"order" yaml:"order"`
	Value             string        `json:"value,omitempty" yaml:"value,omitempty"`
}

// Group returns the segment before the first dot, or "" for ungrouped tags
func (p Placeholder) Group() string {
	group, _, ok := splitGroup(p.FullTagName)
	if !ok {
		return ""
	}
	return group
}

// Member returns the segment after the first dot, or the whole tag for
// ungrouped tags
func (p Placeholder) Member() string {
	_, member, ok := splitGroup(p.FullTagName)
	if !ok {
		return p.FullTagName
	}
	return member
}

// IsGrouped reports whether the tag belongs to a dotted group. Both the group
// and the member segment must be non-empty, so "Company." and ".Name" are
// plain fields.
func (p Placeholder) IsGrouped() bool {
	_, _, ok := splitGroup(p.FullTagName)
	return ok
}

func splitGroup(tag string) (group, member string, ok bool) {
	group, member, found := strings.Cut(tag, GroupSeparator)
	if !found || group == "" || member == "" {
		return "", "", false
	}
	return group, member, true
}

// IsTyped reports whether both the category and the field type are known
func (p Placeholder) IsTyped() bool {
	return p.PlaceholderTypeID != "" && p.FieldTypeID != ""
}

// Clone returns a copy that shares no slices with p
func (p Placeholder) Clone() Placeholder {
	out := p
	if p.Options != nil {
		out.Options = make([]string, len(p.Options))
		copy(out.Options, p.Options)
	}
	if p.FieldType != nil {
		ft := *p.FieldType
		out.FieldType = &ft
	}
	return out
}

// CloneAll copies a list of placeholders
func CloneAll(list []Placeholder) []Placeholder {
	out := make([]Placeholder, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out
}

// Tags lists the full tag names of a placeholder list in order
func Tags(list []Placeholder) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.FullTagName
	}
	return out
}

// GroupOf returns the group segment of a raw tag
func GroupOf(tag string) string {
	return Placeholder{FullTagName: tag}.Group()
}
