package model

// Snippet is one extracted, normalized code snippet tagged with the category
// it was found in. The JSON field order matches the persisted store format.
type Snippet struct {
	Category string `json:"category"`
	SQL      string `json:"sql"`
}

// Dataset is the ordered sequence of snippet records that makes up the whole
// persisted state. Records are only ever appended, one category at a time.
//
// The same SQL text may appear under several categories; uniqueness is only
// enforced within a single category's extraction pass.
type Dataset struct {
	records []Snippet
}

// NewDataset creates a Dataset holding the given records.
// The slice is copied.
func NewDataset(records []Snippet) *Dataset {
	d := &Dataset{records: make([]Snippet, len(records))}
	copy(d.records, records)
	return d
}

// Append adds one record per snippet, all tagged with category.
// It returns the number of records added.
func (d *Dataset) Append(category string, snippets []string) int {
	for _, sql := range snippets {
		d.records = append(d.records, Snippet{Category: category, SQL: sql})
	}
	return len(snippets)
}

// Records returns a copy of the records in insertion order.
func (d *Dataset) Records() []Snippet {
	out := make([]Snippet, len(d.records))
	copy(out, d.records)
	return out
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Categories returns the set of distinct non-empty category names.
// A category in this set is treated as fully crawled.
func (d *Dataset) Categories() CategorySet {
	set := make(CategorySet)
	for _, r := range d.records {
		if r.Category != "" {
			set.Add(r.Category)
		}
	}
	return set
}

// ByCategory returns the SQL texts recorded for category, in order.
func (d *Dataset) ByCategory(category string) []string {
	var out []string
	for _, r := range d.records {
		if r.Category == category {
			out = append(out, r.SQL)
		}
	}
	return out
}
