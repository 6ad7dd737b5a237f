package store

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/sqlharvest/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestLoad tests loading the store and deriving the completed set.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty dataset", func(t *testing.T) {
		t.Parallel()

		dataset, completed := Load(filepath.Join(t.TempDir(), "sqls.json"), testLogger())
		if dataset.Len() != 0 {
			t.Errorf("expected empty dataset, got %d records", dataset.Len())
		}
		if len(completed) != 0 {
			t.Errorf("expected empty completed set, got %v", completed.Names())
		}
	})

	t.Run("corrupt file degrades to empty dataset", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sqls.json")
		if err := os.WriteFile(path, []byte(`[{"category": "SELECT", "sql": `), 0600); err != nil {
			t.Fatal(err)
		}

		dataset, completed := Load(path, testLogger())
		if dataset.Len() != 0 || len(completed) != 0 {
			t.Errorf("expected empty state, got %d records and %d categories", dataset.Len(), len(completed))
		}
	})

	t.Run("wrong document type degrades to empty dataset", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sqls.json")
		if err := os.WriteFile(path, []byte(`{"category": "SELECT"}`), 0600); err != nil {
			t.Fatal(err)
		}

		dataset, _ := Load(path, testLogger())
		if dataset.Len() != 0 {
			t.Errorf("expected empty dataset, got %d records", dataset.Len())
		}
	})

	t.Run("completed set is the distinct non-empty categories", func(t *testing.T) {
		t.Parallel()

		content := `[
  {"category": "SELECT", "sql": "SELECT * FROM Customers;"},
  {"category": "SELECT", "sql": "SELECT City FROM Customers;"},
  {"category": "WHERE", "sql": "SELECT * FROM Customers WHERE Country='Mexico';"},
  {"sql": "SELECT 1;"}
]`
		path := filepath.Join(t.TempDir(), "sqls.json")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		dataset, completed := Load(path, testLogger())
		if dataset.Len() != 4 {
			t.Errorf("expected 4 records, got %d", dataset.Len())
		}
		if len(completed) != 2 || !completed.Has("SELECT") || !completed.Has("WHERE") {
			t.Errorf("unexpected completed set %v", completed.Names())
		}
	})
}

// TestSave tests the written file format.
func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("writes indented array without HTML escaping", func(t *testing.T) {
		t.Parallel()

		dataset := model.NewDataset(nil)
		dataset.Append("OPERATORS", []string{"SELECT * FROM Products WHERE Price <> 18 AND Name = 'Chef Antón';"})

		path := filepath.Join(t.TempDir(), "sqls.json")
		if err := Save(path, dataset); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		want := "[\n" +
			"  {\n" +
			"    \"category\": \"OPERATORS\",\n" +
			"    \"sql\": \"SELECT * FROM Products WHERE Price <> 18 AND Name = 'Chef Antón';\"\n" +
			"  }\n" +
			"]\n"
		if string(data) != want {
			t.Errorf("unexpected file content:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("empty dataset is an empty array", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sqls.json")
		if err := Save(path, model.NewDataset(nil)); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected [], got %q", data)
		}
	})

	t.Run("creates parent directories and leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out", "data")
		path := filepath.Join(dir, "sqls.json")

		dataset := model.NewDataset(nil)
		dataset.Append("SELECT", []string{"SELECT 1;"})
		if err := Save(path, dataset); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := Save(path, dataset); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Name() != "sqls.json" {
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			t.Errorf("expected only sqls.json, got %v", names)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != fileMode {
			t.Errorf("expected mode %o, got %o", fileMode, info.Mode().Perm())
		}
	})
}

// TestFileRoundTrip tests that a saved dataset loads back with its order
// and cross-category duplicates intact.
func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	f := NewFile(filepath.Join(t.TempDir(), "sqls.json"), testLogger())

	dataset := model.NewDataset(nil)
	dataset.Append("SELECT", []string{"SELECT * FROM Customers;"})
	dataset.Append("ALIASES", []string{"SELECT * FROM Customers;", "SELECT CustomerName AS Customer FROM Customers;"})
	if err := f.Save(dataset); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, completed := f.Load()
	got := loaded.Records()
	want := dataset.Records()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(completed) != 2 {
		t.Errorf("expected 2 completed categories, got %v", completed.Names())
	}
}

// TestRead tests that Read reports a missing file.
func TestRead(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}
