package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trek/internal/model"
)

func testItems() []model.Item {
	progress := 40
	return []model.Item{
		{
			ID:        1700000000000,
			Title:     "Distributed Systems",
			Status:    "ongoing",
			StartDate: "2026-01-10",
			Progress:  &progress,
			CreatedAt: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        1700000000001,
			Title:     "Kubernetes",
			Status:    "planning",
			CreatedAt: time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	f := NewFile(path)

	require.NoError(t, f.Save(testItems()))

	got, err := f.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Distributed Systems", got[0].Title)
	assert.Equal(t, int64(1700000000001), got[1].ID)
}

func TestFileMissingIsEmpty(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nope.json"))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFileCorruptIsErrCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFile(path).Load()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestFileNullIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))

	got, err := NewFile(path).Load()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFileSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "items.json")
	f := NewFile(path)

	require.NoError(t, f.Save(testItems()))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestFileSaveThroughUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// Parent "directory" is a regular file, so the write cannot land.
	f := NewFile(filepath.Join(blocker, "items.json"))
	err := f.Save(testItems())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFileSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, NewFile(path).Save(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestFileKeepsUnknownFieldsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	doc := `[{"id": 1, "title": "Rust", "createdAt": "2026-01-10T09:00:00Z", "color": "#ff8800"}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	f := NewFile(path)

	items, err := f.Load()
	require.NoError(t, err)
	require.NoError(t, f.Save(items))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Contains(t, raw[0], "color")
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trek.db")
	s, err := OpenSQLite(path, "")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(testItems()))

	got, err := s.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Kubernetes", got[1].Title)
}

func TestSQLiteEmptyIsEmpty(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "trek.db"), "")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSQLiteCorruptPayloadIsErrCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trek.db")
	s, err := OpenSQLite(path, "")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(testItems()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE state SET payload = ? WHERE key = ?`, []byte("{broken"), DefaultKey)
	require.NoError(t, err)

	_, err = s.Load()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestSQLiteKeysAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trek.db")
	a, err := OpenSQLite(path, "alpha")
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite(path, "beta")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Save(testItems()))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySnapshotIsIsolated(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Save(testItems()))

	got, err := m.Load()
	require.NoError(t, err)
	got[0].Title = "mutated"

	again, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "Distributed Systems", again[0].Title)
}

func TestMemoryFailWith(t *testing.T) {
	m := NewMemory()
	m.FailWith(ErrUnavailable)

	require.ErrorIs(t, m.Save(testItems()), ErrUnavailable)
	_, err := m.Load()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, m.Saves())

	m.FailWith(nil)
	require.NoError(t, m.Save(testItems()))
	assert.Equal(t, 1, m.Saves())
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	file, err := Open(Config{Driver: DriverFile, Path: filepath.Join(dir, "a.json")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, file)

	mem, err := Open(Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, mem)

	lite, err := Open(Config{Driver: DriverSQLite, Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, lite)
	require.NoError(t, lite.Close())

	_, err = Open(Config{Driver: "redis"})
	require.Error(t, err)
}
