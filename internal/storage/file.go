package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"trek/internal/model"
)

// File stores the collection as one human-readable JSON document. The
// single file is the whole store: portable, diffable, editable by hand.
type File struct {
	path string
}

// NewFile builds a file adapter at path. The file is created on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path reports where the collection lives on disk.
func (f *File) Path() string { return f.path }

func (f *File) Load() ([]model.Item, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, f.path, err)
	}
	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	if items == nil {
		// A file holding literal null is an empty collection.
		items = []model.Item{}
	}
	return items, nil
}

// Save writes the collection through a temp file and renames it into place
// so a crash mid-write never leaves a half document behind.
func (f *File) Save(items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	data = append(data, '\n')
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return classifyWrite(dir, err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return classifyWrite(tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return classifyWrite(f.path, err)
	}
	return nil
}

func (f *File) Close() error { return nil }

// classifyWrite maps out-of-space errnos to ErrQuota and everything else
// to ErrUnavailable.
func classifyWrite(path string, err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: write %s: %v", ErrQuota, path, err)
	}
	return fmt.Errorf("%w: write %s: %v", ErrUnavailable, path, err)
}
