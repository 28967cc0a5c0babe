package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"trek/internal/model"
)

// SQLite keeps the collection as a single JSON payload in a one-row
// key/value table, mirroring the file driver's whole-snapshot layout while
// gaining transactional writes.
type SQLite struct {
	db  *sql.DB
	key string
}

// DefaultKey is the state key used when the config names none.
const DefaultKey = "trek_items"

// OpenSQLite opens (creating if needed) the database at path and ensures
// the state table exists.
func OpenSQLite(path, key string) (*SQLite, error) {
	if key == "" {
		key = DefaultKey
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ErrUnavailable, dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		key     TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create state table: %v", ErrUnavailable, err)
	}
	return &SQLite{db: db, key: key}, nil
}

func (s *SQLite) Load() ([]model.Item, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE key = ?`, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select state: %v", ErrUnavailable, err)
	}
	var items []model.Item
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", ErrCorrupt, s.key, err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s *SQLite) Save(items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO state (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, s.key, payload); err != nil {
		if strings.Contains(err.Error(), "database or disk is full") {
			return fmt.Errorf("%w: upsert state: %v", ErrQuota, err)
		}
		return fmt.Errorf("%w: upsert state: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
