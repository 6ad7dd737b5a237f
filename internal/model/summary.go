package model

// CategoryCount is the number of records stored for one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary condenses a dataset for display in reports.
type Summary struct {
	// Source is where the dataset was loaded from, usually the store path.
	Source string `json:"source,omitempty"`

	// TotalRecords is the number of snippet records.
	TotalRecords int `json:"total_records"`

	// CategoryCount is the number of distinct categories.
	CategoryCount int `json:"category_count"`

	// UniqueSQL is the number of distinct SQL texts across all categories.
	UniqueSQL int `json:"unique_sql"`

	// SharedSQL is the number of distinct SQL texts recorded under more
	// than one category.
	SharedSQL int `json:"shared_sql"`

	// Categories lists per-category counts in first-appearance order.
	Categories []CategoryCount `json:"categories"`
}

// NewSummary computes a Summary of the dataset.
func NewSummary(source string, d *Dataset) *Summary {
	s := &Summary{
		Source:     source,
		Categories: make([]CategoryCount, 0),
	}

	index := make(map[string]int)
	owners := make(map[string]map[string]struct{})

	for _, r := range d.records {
		s.TotalRecords++

		name := r.Category
		i, ok := index[name]
		if !ok {
			i = len(s.Categories)
			index[name] = i
			s.Categories = append(s.Categories, CategoryCount{Category: name})
		}
		s.Categories[i].Count++

		set, ok := owners[r.SQL]
		if !ok {
			set = make(map[string]struct{})
			owners[r.SQL] = set
		}
		set[name] = struct{}{}
	}

	s.CategoryCount = len(s.Categories)
	s.UniqueSQL = len(owners)
	for _, set := range owners {
		if len(set) > 1 {
			s.SharedSQL++
		}
	}

	return s
}

// IsEmpty reports whether the summarized dataset has no records.
func (s *Summary) IsEmpty() bool {
	return s.TotalRecords == 0
}
