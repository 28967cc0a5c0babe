// Package config loads trek's configuration: defaults, then an optional
// YAML file, then TREK_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trek/internal/model"
)

type Config struct {
	AppName string        `yaml:"app_name" mapstructure:"app_name"`
	Theme   string        `yaml:"theme" mapstructure:"theme"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
}

type StorageConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	Path      string `yaml:"path" mapstructure:"path"`
	Key       string `yaml:"key" mapstructure:"key"`
	OnCorrupt string `yaml:"on_corrupt" mapstructure:"on_corrupt"`
}

type StoreConfig struct {
	Statuses        []string `yaml:"statuses" mapstructure:"statuses"`
	CompletedStatus string   `yaml:"completed_status" mapstructure:"completed_status"`
	Insert          string   `yaml:"insert" mapstructure:"insert"`
}

type SearchConfig struct {
	Fields     []string `yaml:"fields" mapstructure:"fields"`
	DebounceMS int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		AppName: "trek",
		Theme:   "dark",
		Storage: StorageConfig{
			Driver:    "file",
			OnCorrupt: "fail",
		},
		Store: StoreConfig{
			Statuses:        []string{"planning", "ongoing", "completed"},
			CompletedStatus: "completed",
			Insert:          "append",
		},
		Search: SearchConfig{
			Fields:     []string{"title"},
			DebounceMS: 300,
		},
	}
}

// Load reads configuration. An explicit path must exist; with an empty
// path the usual locations are searched and a missing file just means
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "trek"))
		}
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "trek"))
	}

	v.SetEnvPrefix("TREK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, err
		}
		// No config file anywhere; defaults carry the day.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InsertFront reports whether new items go to the top of the list.
func (c *Config) InsertFront() bool {
	return c.Store.Insert == "prepend"
}

// Debounce returns the search debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("config: app_name is required")
	}
	switch c.Storage.Driver {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("config: storage.driver %q is invalid (must be file, sqlite, or memory)", c.Storage.Driver)
	}
	switch c.Storage.OnCorrupt {
	case "fail", "reset":
	default:
		return fmt.Errorf("config: storage.on_corrupt %q is invalid (must be fail or reset)", c.Storage.OnCorrupt)
	}
	switch c.Store.Insert {
	case "append", "prepend":
	default:
		return fmt.Errorf("config: store.insert %q is invalid (must be append or prepend)", c.Store.Insert)
	}
	if len(c.Store.Statuses) == 0 {
		return fmt.Errorf("config: store.statuses must not be empty")
	}
	seen := map[string]bool{}
	for _, s := range c.Store.Statuses {
		if s == "" {
			return fmt.Errorf("config: store.statuses must not contain empty values")
		}
		if seen[s] {
			return fmt.Errorf("config: store.statuses lists %q twice", s)
		}
		seen[s] = true
	}
	if !seen[c.Store.CompletedStatus] {
		return fmt.Errorf("config: store.completed_status %q not found in store.statuses", c.Store.CompletedStatus)
	}
	for _, f := range c.Search.Fields {
		if !searchable(f) {
			return fmt.Errorf("config: search.fields lists unknown field %q", f)
		}
	}
	if c.Search.DebounceMS < 0 {
		return fmt.Errorf("config: search.debounce_ms must not be negative")
	}
	return nil
}

func searchable(field string) bool {
	for _, f := range model.SearchableFields {
		if f == field {
			return true
		}
	}
	return false
}
