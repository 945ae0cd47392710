package placeholder

// Category is the resolved meaning of a placeholder_type_id
type Category int

const (
	// CategoryInput is an ordinary, document specific field
	CategoryInput Category = iota
	// CategoryGenericData holds organization-wide values such as a company logo
	CategoryGenericData
	// CategoryMasterFolderOnly is only ever filled from the master folder and
	// never reaches the editable form
	CategoryMasterFolderOnly
)

// String returns a string representation of the Category
func (c Category) String() string {
	switch c {
	case CategoryGenericData:
		return "generic_data"
	case CategoryMasterFolderOnly:
		return "master_folder_only"
	default:
		return "input"
	}
}

// IsGeneric reports whether the category belongs in the generic list
func (c Category) IsGeneric() bool {
	return c == CategoryGenericData || c == CategoryMasterFolderOnly
}

// Categories maps the reserved placeholder type ids of a deployment onto
// categories. It is built from configuration and handed to the classifier.
type Categories struct {
	GenericDataID      string `json:"generic_data_id"`
	MasterFolderOnlyID string `json:"master_folder_only_id"`
}

// Of resolves the category of a placeholder type id. Empty and unknown ids
// are ordinary input.
func (c Categories) Of(placeholderTypeID string) Category {
	switch {
	case placeholderTypeID == "":
		return CategoryInput
	case placeholderTypeID == c.MasterFolderOnlyID:
		return CategoryMasterFolderOnly
	case placeholderTypeID == c.GenericDataID:
		return CategoryGenericData
	default:
		return CategoryInput
	}
}

// CategoryOf resolves the category of a placeholder
func (c Categories) CategoryOf(p Placeholder) Category {
	return c.Of(p.PlaceholderTypeID)
}
