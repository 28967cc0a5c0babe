// Package storage persists the item collection. Every driver holds the
// whole collection under a single key and every save is a full overwrite;
// last writer wins. No locking across processes; fine for a local
// single-user tool.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"trek/internal/model"
)

// Adapter is the persistence boundary for the item collection.
type Adapter interface {
	// Load returns the persisted collection. A backend with nothing stored
	// yet returns an empty collection, not an error.
	Load() ([]model.Item, error)
	// Save overwrites the persisted collection with the given one.
	Save(items []model.Item) error
	Close() error
}

// Drivers selectable through Config.Driver.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config selects and parameterizes a driver.
type Config struct {
	Driver string // file | sqlite | memory (default file)
	Path   string // backing file; empty resolves under ~/.trek
	Key    string // storage key for keyed backends (sqlite)
}

// Open builds the configured adapter.
func Open(cfg Config) (Adapter, error) {
	switch cfg.Driver {
	case "", DriverFile:
		path, err := defaultedPath(cfg.Path, "items.json")
		if err != nil {
			return nil, err
		}
		return NewFile(path), nil
	case DriverSQLite:
		path, err := defaultedPath(cfg.Path, "trek.db")
		if err != nil {
			return nil, err
		}
		return OpenSQLite(path, cfg.Key)
	case DriverMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// defaultedPath keeps an explicit path as-is and otherwise places the file
// in the app dir under the user's home.
func defaultedPath(path, name string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".trek", name), nil
}
