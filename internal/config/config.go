// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"castor-cli/internal/issue"
	"castor-cli/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName names the configuration and cache directories.
	AppName = "castor"
	// ConfigFileName is the config file inside ConfigDir.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is looked up in the working directory when the user
	// config file is absent.
	LocalConfigFileName = ".castor.cue"
	// EnvPrefix prefixes environment overrides, e.g. CASTOR_CACHE_BACKEND.
	EnvPrefix = "CASTOR"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the castor directory under the platform user config
// directory.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// loadWithOptions layers defaults, the config file and the environment.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	v := newViper()

	path, err := locate(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the configuration schema").
				WithSuggestion("Run 'castor config show' to see every field with its default").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check CASTOR_* environment variables as well as the config file").
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

// newViper returns a Viper seeded with defaults and bound to CASTOR_* variables.
// Every key needs a default for AutomaticEnv to reach it during Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("root_dir", d.RootDir)
	v.SetDefault("entry_file", d.EntryFile)
	v.SetDefault("extension_dir", d.ExtensionDir)
	v.SetDefault("module_suffix", d.ModuleSuffix)
	v.SetDefault("repacked", d.Repacked)
	v.SetDefault("log_level", string(d.LogLevel))
	v.SetDefault("console", d.Console)
	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL.String())
	v.SetDefault("lua.all_libraries", d.Lua.AllLibraries)
	v.SetDefault("lua.load_timeout", d.Lua.LoadTimeout.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// locate picks the config file: the explicit path, then ConfigDir, then the
// working directory. An empty result means defaults only.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the path given to --config").
				Wrap(fmt.Errorf("config file not found: %w", os.ErrNotExist)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
		return p, nil
	}

	if opts.WorkDir != "" {
		if p := filepath.Join(opts.WorkDir, LocalConfigFileName); fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates path against #Config and merges it into v.
//
// Decoding goes to a map rather than through cueutil.ParseAndDecode because
// Viper merges maps and every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(configSchema)
	if schema.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schema.Err())
	}

	user := cctx.CompileBytes(data, cue.Filename(path))
	if user.Err() != nil {
		return cueutil.FormatError(user.Err(), path)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var m map[string]any
	if err := unified.Decode(&m); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes cfg as CUE to path, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig writes the defaults to ConfigDir unless a file exists.
func CreateDefaultConfig() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}
	return path, Save(DefaultConfig(), path)
}

// GenerateCUE renders cfg in the config file format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// castor configuration\n\n")
	fmt.Fprintf(&sb, "root_dir: %q\n", cfg.RootDir)
	fmt.Fprintf(&sb, "entry_file: %q\n", cfg.EntryFile)
	fmt.Fprintf(&sb, "extension_dir: %q\n", cfg.ExtensionDir)
	fmt.Fprintf(&sb, "module_suffix: %q\n", cfg.ModuleSuffix)
	fmt.Fprintf(&sb, "repacked: %v\n", cfg.Repacked)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)
	fmt.Fprintf(&sb, "console: %q\n", cfg.Console)

	sb.WriteString("\ncache: {\n")
	fmt.Fprintf(&sb, "\tbackend: %q\n", cfg.Cache.Backend)
	fmt.Fprintf(&sb, "\tdir: %q\n", cfg.Cache.Dir)
	fmt.Fprintf(&sb, "\tttl: %q\n", cfg.Cache.TTL.String())
	sb.WriteString("}\n")

	sb.WriteString("\nlua: {\n")
	fmt.Fprintf(&sb, "\tall_libraries: %v\n", cfg.Lua.AllLibraries)
	fmt.Fprintf(&sb, "\tload_timeout: %q\n", cfg.Lua.LoadTimeout.String())
	sb.WriteString("}\n")

	return sb.String()
}
