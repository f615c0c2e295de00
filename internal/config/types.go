// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	// CacheBackendSQLite persists console listings in a sqlite database.
	CacheBackendSQLite CacheBackend = "sqlite"
	// CacheBackendMemory keeps console listings for the life of the process.
	CacheBackendMemory CacheBackend = "memory"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// CacheBackend selects the cache.Store implementation.
	CacheBackend string

	// LogLevel is the minimum level written by the CLI logger.
	LogLevel string

	// Config is the effective castor configuration.
	Config struct {
		RootDir      string      `json:"root_dir" mapstructure:"root_dir"`
		EntryFile    string      `json:"entry_file" mapstructure:"entry_file"`
		ExtensionDir string      `json:"extension_dir" mapstructure:"extension_dir"`
		ModuleSuffix string      `json:"module_suffix" mapstructure:"module_suffix"`
		Repacked     bool        `json:"repacked" mapstructure:"repacked"`
		LogLevel     LogLevel    `json:"log_level" mapstructure:"log_level"`
		Console      string      `json:"console" mapstructure:"console"`
		Cache        CacheConfig `json:"cache" mapstructure:"cache"`
		Lua          LuaConfig   `json:"lua" mapstructure:"lua"`

		// Source is the file the configuration was read from, empty when only
		// defaults and environment applied.
		Source string `json:"-" mapstructure:"-"`
	}

	CacheConfig struct {
		Backend CacheBackend  `json:"backend" mapstructure:"backend"`
		Dir     string        `json:"dir" mapstructure:"dir"`
		TTL     time.Duration `json:"ttl" mapstructure:"ttl"`
	}

	LuaConfig struct {
		AllLibraries bool          `json:"all_libraries" mapstructure:"all_libraries"`
		LoadTimeout  time.Duration `json:"load_timeout" mapstructure:"load_timeout"`
	}

	// InvalidConfigError reports a field that failed validation after all
	// sources were merged. Environment overrides are not checked by the CUE
	// schema, so these checks repeat its constraints.
	InvalidConfigError struct {
		Field  string
		Value  any
		Reason string
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		RootDir:      ".",
		EntryFile:    "castor.lua",
		ExtensionDir: "castor",
		ModuleSuffix: ".lua",
		LogLevel:     LogLevelInfo,
		Console:      "php bin/console",
		Cache: CacheConfig{
			Backend: CacheBackendSQLite,
			TTL:     24 * time.Hour,
		},
		Lua: LuaConfig{
			LoadTimeout: 30 * time.Second,
		},
	}
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// IsValid reports whether b names a known backend.
func (b CacheBackend) IsValid() bool {
	return b == CacheBackendSQLite || b == CacheBackendMemory
}

// IsValid reports whether l names a known level.
func (l LogLevel) IsValid() bool {
	return slices.Contains([]LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}, l)
}

// Validate checks the merged configuration and returns every violation joined.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field string, value any, reason string) {
		errs = append(errs, &InvalidConfigError{Field: field, Value: value, Reason: reason})
	}

	if c.RootDir == "" {
		invalid("root_dir", c.RootDir, "must not be empty")
	}
	if c.EntryFile == "" {
		invalid("entry_file", c.EntryFile, "must not be empty")
	}
	if c.ExtensionDir == "" {
		invalid("extension_dir", c.ExtensionDir, "must not be empty")
	}
	if c.ModuleSuffix == "" || c.ModuleSuffix[0] != '.' {
		invalid("module_suffix", c.ModuleSuffix, "must start with a dot")
	}
	if !c.LogLevel.IsValid() {
		invalid("log_level", c.LogLevel, "must be one of debug, info, warn, error")
	}
	if c.Console == "" {
		invalid("console", c.Console, "must not be empty")
	}
	if !c.Cache.Backend.IsValid() {
		invalid("cache.backend", c.Cache.Backend, "must be sqlite or memory")
	}
	if c.Cache.TTL <= 0 {
		invalid("cache.ttl", c.Cache.TTL, "must be positive")
	}
	if c.Lua.LoadTimeout < 0 {
		invalid("lua.load_timeout", c.Lua.LoadTimeout, "must not be negative")
	}
	return errors.Join(errs...)
}
