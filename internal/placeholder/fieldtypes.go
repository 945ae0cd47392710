package placeholder

import "strings"

// Well known field type names of the field-type catalog
const (
	TypeText      = "Text"
	TypeNumber    = "Number"
	TypeDate      = "Date"
	TypeDropdown  = "Dropdown"
	TypeCheckbox  = "Checkbox"
	TypeChips     = "Chips"
	TypeImage     = "Image"
	TypeRepeating = "Repeating"
)

// FieldType is one entry of the field-type catalog
type FieldType struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// FieldTypes resolves field type ids to display names
type FieldTypes struct {
	list   []FieldType
	byID   map[string]string
	byName map[string]string
}

// NewFieldTypes indexes a field-type catalog; the first entry for an id wins
func NewFieldTypes(list []FieldType) FieldTypes {
	ft := FieldTypes{
		list:   make([]FieldType, 0, len(list)),
		byID:   make(map[string]string, len(list)),
		byName: make(map[string]string, len(list)),
	}
	for _, t := range list {
		if _, ok := ft.byID[t.ID]; ok {
			continue
		}
		ft.list = append(ft.list, t)
		ft.byID[t.ID] = t.Name
		if _, ok := ft.byName[strings.ToLower(t.Name)]; !ok {
			ft.byName[strings.ToLower(t.Name)] = t.ID
		}
	}
	return ft
}

// Name returns the display name of a type id, or "" when it is unknown
func (ft FieldTypes) Name(id string) string {
	return ft.byID[id]
}

// ID looks a type up by display name, ignoring case
func (ft FieldTypes) ID(name string) string {
	return ft.byName[strings.ToLower(name)]
}

// Resolve returns the type name of a placeholder, preferring its nested type
// descriptor over the catalog lookup
func (ft FieldTypes) Resolve(p Placeholder) string {
	if p.FieldType != nil && p.FieldType.Name != "" {
		return p.FieldType.Name
	}
	return ft.Name(p.FieldTypeID)
}

// List returns the catalog entries in their original order
func (ft FieldTypes) List() []FieldType {
	return append([]FieldType(nil), ft.list...)
}

// Len returns the number of known field types
func (ft FieldTypes) Len() int {
	return len(ft.list)
}
