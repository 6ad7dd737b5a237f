package model

import "testing"

// TestDatasetAppend tests appending category results.
func TestDatasetAppend(t *testing.T) {
	t.Parallel()

	t.Run("appends one record per snippet in order", func(t *testing.T) {
		t.Parallel()

		d := NewDataset(nil)
		added := d.Append("SELECT", []string{"SELECT 1;", "SELECT 2;"})

		if added != 2 {
			t.Errorf("expected 2 added, got %d", added)
		}
		records := d.Records()
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0] != (Snippet{Category: "SELECT", SQL: "SELECT 1;"}) {
			t.Errorf("unexpected first record %+v", records[0])
		}
		if records[1].SQL != "SELECT 2;" {
			t.Errorf("unexpected second record %+v", records[1])
		}
	})

	t.Run("keeps the same SQL under different categories", func(t *testing.T) {
		t.Parallel()

		d := NewDataset(nil)
		d.Append("SELECT", []string{"SELECT * FROM Customers;"})
		d.Append("WHERE", []string{"SELECT * FROM Customers;"})

		if d.Len() != 2 {
			t.Errorf("expected 2 records, got %d", d.Len())
		}
	})

	t.Run("NewDataset copies the input slice", func(t *testing.T) {
		t.Parallel()

		in := []Snippet{{Category: "A", SQL: "x;"}}
		d := NewDataset(in)
		in[0].Category = "B"

		if d.Records()[0].Category != "A" {
			t.Error("expected dataset to be independent of input slice")
		}
	})
}

// TestDatasetCategories tests derivation of the completed-category set.
func TestDatasetCategories(t *testing.T) {
	t.Parallel()

	d := NewDataset([]Snippet{
		{Category: "SELECT", SQL: "a;"},
		{Category: "SELECT", SQL: "b;"},
		{Category: "WHERE", SQL: "c;"},
		{Category: "", SQL: "orphan;"},
	})

	set := d.Categories()
	if len(set) != 2 {
		t.Errorf("expected 2 categories, got %d: %v", len(set), set.Names())
	}
	if !set.Has("SELECT") || !set.Has("WHERE") {
		t.Errorf("expected SELECT and WHERE in set, got %v", set.Names())
	}
	if set.Has("") {
		t.Error("empty category name must not be treated as completed")
	}

	if got := d.ByCategory("SELECT"); len(got) != 2 || got[0] != "a;" {
		t.Errorf("unexpected ByCategory result %v", got)
	}
}

// TestNewSummary tests dataset summaries.
func TestNewSummary(t *testing.T) {
	t.Parallel()

	t.Run("counts records, categories and shared SQL", func(t *testing.T) {
		t.Parallel()

		d := NewDataset([]Snippet{
			{Category: "SELECT", SQL: "SELECT * FROM Customers;"},
			{Category: "SELECT", SQL: "SELECT City FROM Customers;"},
			{Category: "WHERE", SQL: "SELECT * FROM Customers;"},
		})

		s := NewSummary("sqls.json", d)

		if s.TotalRecords != 3 {
			t.Errorf("expected 3 records, got %d", s.TotalRecords)
		}
		if s.CategoryCount != 2 {
			t.Errorf("expected 2 categories, got %d", s.CategoryCount)
		}
		if s.UniqueSQL != 2 {
			t.Errorf("expected 2 unique SQL, got %d", s.UniqueSQL)
		}
		if s.SharedSQL != 1 {
			t.Errorf("expected 1 shared SQL, got %d", s.SharedSQL)
		}
		if s.Categories[0] != (CategoryCount{Category: "SELECT", Count: 2}) {
			t.Errorf("unexpected first category %+v", s.Categories[0])
		}
		if s.Categories[1] != (CategoryCount{Category: "WHERE", Count: 1}) {
			t.Errorf("unexpected second category %+v", s.Categories[1])
		}
	})

	t.Run("empty dataset", func(t *testing.T) {
		t.Parallel()

		s := NewSummary("", NewDataset(nil))
		if !s.IsEmpty() {
			t.Error("expected empty summary")
		}
		if s.Categories == nil {
			t.Error("expected non-nil categories slice for JSON output")
		}
	})
}
