package model

// Category is one crawlable topic page discovered on the root listing page.
// Name is the resume key; PageID is the fetch target relative to the root URL.
type Category struct {
	// Name is the display name of the navigation link, e.g. "SELECT".
	Name string `json:"name"`

	// PageID is the link target, e.g. "sql_select.asp".
	PageID string `json:"page_id"`
}

// CategorySet is the set of category names already present in a dataset.
type CategorySet map[string]struct{}

// Has reports whether name is in the set.
func (s CategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name into the set.
func (s CategorySet) Add(name string) {
	s[name] = struct{}{}
}

// Names returns the names in the set in no particular order.
func (s CategorySet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}
