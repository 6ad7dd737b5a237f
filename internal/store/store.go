package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/sqlharvest/internal/model"
)

// fileMode is the permission of the written store file.
const fileMode = 0644

// File is a dataset stored at a fixed path.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a File for path. A nil logger uses slog.Default.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the dataset and its completed-category set.
//
// A missing file yields an empty dataset. Any read or parse error is logged
// at warn level and also yields an empty dataset: a corrupt store is
// treated as no store.
func (f *File) Load() (*model.Dataset, model.CategorySet) {
	records, err := readRecords(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Info("no existing store, starting fresh", "path", f.path)
		} else {
			f.logger.Warn("failed to load store, starting fresh", "path", f.path, "error", err)
		}
		return model.NewDataset(nil), make(model.CategorySet)
	}

	dataset := model.NewDataset(records)
	completed := dataset.Categories()
	f.logger.Info("loaded store",
		"path", f.path,
		"records", dataset.Len(),
		"categories", len(completed),
	)
	return dataset, completed
}

// Save rewrites the whole file with the dataset.
func (f *File) Save(dataset *model.Dataset) error {
	if err := Save(f.path, dataset); err != nil {
		return err
	}
	f.logger.Debug("saved store", "path", f.path, "records", dataset.Len())
	return nil
}

// Load reads the dataset at path. See File.Load.
func Load(path string, logger *slog.Logger) (*model.Dataset, model.CategorySet) {
	return NewFile(path, logger).Load()
}

// Read reads the dataset at path and returns every error, including a
// missing file. Commands that only inspect the store use it.
func Read(path string) (*model.Dataset, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	return model.NewDataset(records), nil
}

// Save writes the dataset to path as an indented JSON array.
//
// HTML characters and non-ASCII text are written literally. The data is
// written to a temporary file in the same directory and renamed over path,
// so readers never observe a partially written store.
func Save(path string, dataset *model.Dataset) error {
	data, err := encode(dataset.Records())
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// readRecords parses the JSON array at path. A "null" document is an
// empty array.
func readRecords(path string) ([]model.Snippet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-configured
	if err != nil {
		return nil, err
	}

	var records []model.Snippet
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// encode renders records with two-space indentation and no HTML escaping.
func encode(records []model.Snippet) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
