package placeholder

// Classification is the outcome of matching extracted placeholders with the
// catalog
type Classification struct {
	// Generic holds organization-wide placeholders; they are filled from the
	// generic data store, not from the form
	Generic []Placeholder `json:"generic"`
	// Input holds the document specific placeholders the operator organizes
	Input []Placeholder `json:"input"`
	// Dropped lists tags removed because the catalog marks them master folder only
	Dropped []string `json:"dropped,omitempty"`
	// Suppressed lists untyped tags that were references to generic data
	Suppressed []string `json:"suppressed,omitempty"`
}

// Classifier splits placeholders into generic and input lists
type Classifier struct {
	categories Categories
}

// NewClassifier creates a classifier for the reserved categories of a deployment
func NewClassifier(categories Categories) *Classifier {
	return &Classifier{categories: categories}
}

// Classify enriches extracted placeholders with their catalog entries and
// partitions the result. priorGeneric is the generic list of an earlier
// resolution for the same organization; it may be nil.
func (c *Classifier) Classify(extracted, catalog, priorGeneric []Placeholder) Classification {
	result := Classification{
		Generic: make([]Placeholder, 0),
		Input:   make([]Placeholder, 0),
	}

	enriched := c.Enrich(extracted, catalog, &result)

	generic := make([]Placeholder, 0, len(priorGeneric))
	generic = append(generic, priorGeneric...)
	input := make([]Placeholder, 0, len(enriched))
	for _, p := range enriched {
		if c.categories.CategoryOf(p).IsGeneric() {
			generic = append(generic, p)
			continue
		}
		input = append(input, p)
	}
	generic = Dedupe(generic)
	input = Dedupe(input)

	// An explicit, fully specified placeholder wins over a generic reference
	genericTags := make(map[string]bool, len(generic))
	for _, p := range generic {
		genericTags[p.FullTagName] = true
	}
	overridden := make(map[string]bool)
	for _, p := range input {
		if !genericTags[p.FullTagName] {
			result.Input = append(result.Input, p)
			continue
		}
		if p.IsTyped() {
			overridden[p.FullTagName] = true
			result.Input = append(result.Input, p)
			continue
		}
		result.Suppressed = append(result.Suppressed, p.FullTagName)
	}
	for _, p := range generic {
		if !overridden[p.FullTagName] {
			result.Generic = append(result.Generic, p)
		}
	}
	return result
}

// Enrich replaces every extracted placeholder that has a catalog entry with
// that entry, keeping its position. Entries in the master folder only
// category remove the placeholder altogether. Dropped tags are recorded on
// result when it is not nil.
func (c *Classifier) Enrich(extracted, catalog []Placeholder, result *Classification) []Placeholder {
	entries := ByTag(catalog)
	out := make([]Placeholder, 0, len(extracted))
	for _, p := range extracted {
		entry, ok := entries[p.FullTagName]
		if !ok {
			out = append(out, p.Clone())
			continue
		}
		if c.categories.CategoryOf(entry) == CategoryMasterFolderOnly {
			if result != nil {
				result.Dropped = append(result.Dropped, p.FullTagName)
			}
			continue
		}

		merged := entry.Clone()
		if merged.Name == "" {
			merged.Name = p.Name
		}
		if merged.Options == nil {
			merged.Options = []string{}
		}
		if merged.Value == "" {
			merged.Value = p.Value
		}
		out = append(out, merged)
	}
	return out
}
