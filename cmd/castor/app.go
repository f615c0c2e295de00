// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"castor-cli/internal/cache"
	"castor-cli/internal/config"
	"castor-cli/internal/discovery"
	"castor-cli/internal/host/luahost"
	"castor-cli/internal/introspect"
	"castor-cli/internal/issue"
	"castor-cli/internal/loader"
	"castor-cli/internal/resolver"

	"mvdan.cc/sh/v3/shell"
)

type (
	// App wires the CLI services. Cobra handlers receive an App and delegate
	// to its services.
	App struct {
		Config    ConfigProvider
		Discovery DiscoveryService
		Caches    CacheOpener
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies are the injection points for NewApp. Nil fields get the
	// production implementation.
	Dependencies struct {
		Config    ConfigProvider
		Discovery DiscoveryService
		Caches    CacheOpener
		// Runner executes console listings for the default DiscoveryService.
		Runner introspect.Runner
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DiscoveryService runs one complete discovery pass.
	DiscoveryService interface {
		Discover(ctx context.Context, cfg *config.Config) (*discovery.Result, error)
	}

	// CacheOpener opens the definition cache selected by cfg.
	CacheOpener func(cfg *config.Config) (cache.Store, error)

	// appDiscoveryService builds a fresh Lua runtime per pass: modules are
	// executed at most once per runtime, so reusing one would hide edits.
	appDiscoveryService struct {
		caches CacheOpener
		runner introspect.Runner
	}
)

// NewApp fills nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		Discovery: deps.Discovery,
		Caches:    deps.Caches,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Caches == nil {
		app.Caches = openCache
	}
	if app.Discovery == nil {
		runner := deps.Runner
		if runner == nil {
			runner = introspect.ExecRunner{}
		}
		app.Discovery = &appDiscoveryService{caches: app.Caches, runner: runner}
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// openCache opens the configured cache.Store backend.
func openCache(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == config.CacheBackendMemory {
		return cache.NewMemory(), nil
	}

	path := filepath.Join(cfg.Cache.Dir, cache.DefaultDBName)
	if cfg.Cache.Dir == "" {
		var err error
		if path, err = cache.DefaultSQLitePath(); err != nil {
			return nil, err
		}
	}
	store, err := cache.NewSQLite(cache.SQLiteConfig{DSN: path})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithIssue(issue.CacheUnavailableId).
			WithOperation("open definition cache").
			WithResource(path).
			WithSuggestion("Check that the directory is writable").
			WithSuggestion(`Set cache: backend: "memory" to skip the on-disk cache`).
			Wrap(err).
			BuildError()
	}
	return store, nil
}

// Discover runs one pass over cfg.RootDir and classifies its failure.
func (s *appDiscoveryService) Discover(ctx context.Context, cfg *config.Config) (*discovery.Result, error) {
	console, err := shell.Fields(cfg.Console, nil)
	if err == nil && len(console) == 0 {
		err = errors.New("console is empty")
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("parse default console").
			WithResource(cfg.Console).
			Wrap(err).
			BuildError()
	}

	store, err := s.caches(cfg)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(store)

	opts := []luahost.Option{
		luahost.WithLogger(slog.Default()),
		luahost.WithLoadTimeout(cfg.Lua.LoadTimeout),
	}
	if cfg.Lua.AllLibraries {
		opts = append(opts, luahost.WithAllLibraries())
	}
	rt := luahost.New(opts...)
	defer closeQuietly(rt)

	d := discovery.New(rt,
		discovery.WithCache(store),
		discovery.WithCacheTTL(cfg.Cache.TTL),
		discovery.WithRunner(s.runner),
		discovery.WithDefaultConsole(console),
		discovery.WithLogger(slog.Default()),
		discovery.WithLoaderOptions(
			loader.WithEntryName(cfg.EntryFile),
			loader.WithExtensionDir(cfg.ExtensionDir),
			loader.WithSuffix(cfg.ModuleSuffix),
			loader.WithRepacked(cfg.Repacked),
		),
	)

	res, err := discovery.Collect(ctx, d, cfg.RootDir)
	if err != nil {
		return nil, classifyDiscoveryError(err, cfg)
	}
	return res, nil
}

// classifyDiscoveryError attaches catalog guidance to a failed pass.
func classifyDiscoveryError(err error, cfg *config.Config) error {
	ec := issue.NewErrorContext().WithOperation("discover tasks").Wrap(err)

	var notFound *loader.ModuleNotFoundError
	var cfgErr *resolver.FunctionConfigurationError
	var cmdErr *introspect.CommandError
	switch {
	case errors.As(err, &notFound):
		ec.WithIssue(issue.EntryModuleNotFoundId).
			WithResource(notFound.Path).
			WithSuggestion(fmt.Sprintf("Create %s in %s", cfg.EntryFile, cfg.RootDir)).
			WithSuggestion("Use --root to point at another project")
	case errors.As(err, &cmdErr):
		ec.WithIssue(issue.ConsoleIntrospectionFailedId).
			WithResource(cmdErr.Dir).
			WithSuggestion("Run the console by hand to see why it fails").
			WithSuggestion("Clear stale listings with 'castor cache clear'")
	case errors.As(err, &cfgErr):
		ec.WithIssue(issue.FunctionConfigurationId).
			WithResource(cfgErr.Decl.Module)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		ec.WithIssue(issue.ModuleLoadFailedId).
			WithSuggestion("Run 'castor files' to see which modules loaded before the failure")
	}
	return ec.BuildError()
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Default().Warn("close failed", "err", err)
	}
}
