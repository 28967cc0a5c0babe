package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "trek", cfg.AppName)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "fail", cfg.Storage.OnCorrupt)
	assert.Equal(t, []string{"planning", "ongoing", "completed"}, cfg.Store.Statuses)
	assert.Equal(t, "completed", cfg.Store.CompletedStatus)
	assert.False(t, cfg.InsertFront())
	assert.Equal(t, []string{"title"}, cfg.Search.Fields)
	assert.Equal(t, 300, cfg.Search.DebounceMS)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite
  path: /tmp/trek-test.db
store:
  insert: prepend
  statuses: [backlog, doing, done]
  completed_status: done
search:
  fields: [title, notes]
  debounce_ms: 150
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.True(t, cfg.InsertFront())
	assert.Equal(t, []string{"backlog", "doing", "done"}, cfg.Store.Statuses)
	assert.Equal(t, []string{"title", "notes"}, cfg.Search.Fields)
	assert.Equal(t, 150, cfg.Search.DebounceMS)

	// Untouched keys keep their defaults.
	assert.Equal(t, "trek", cfg.AppName)
	assert.Equal(t, "fail", cfg.Storage.OnCorrupt)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":         func(c *Config) { c.Storage.Driver = "redis" },
		"unknown corrupt policy": func(c *Config) { c.Storage.OnCorrupt = "ignore" },
		"unknown insert policy":  func(c *Config) { c.Store.Insert = "middle" },
		"empty statuses":         func(c *Config) { c.Store.Statuses = nil },
		"blank status":           func(c *Config) { c.Store.Statuses = []string{"a", ""} },
		"duplicate status":       func(c *Config) { c.Store.Statuses = []string{"a", "a"} },
		"completed not in set":   func(c *Config) { c.Store.CompletedStatus = "archived" },
		"unsearchable field":     func(c *Config) { c.Search.Fields = []string{"id"} },
		"negative debounce":      func(c *Config) { c.Search.DebounceMS = -1 },
		"empty app name":         func(c *Config) { c.AppName = "" },
	}

	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestDebounceDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.DebounceMS = 150

	assert.Equal(t, "150ms", cfg.Debounce().String())
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "storage: [broken")

	_, err := Load(path)
	require.Error(t, err)
}
