// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs discovery when module files change.
//
// A Watcher registers every directory under a project root with fsnotify,
// filters events through doublestar patterns and coalesces bursts of events
// into a single callback once the debounce window closes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	// skipDirs are never registered, whatever the patterns say.
	skipDirs = []string{".git", "vendor", "node_modules", "var"}
)

type (
	// ChangeFunc receives the sorted root-relative paths that changed.
	ChangeFunc func(ctx context.Context, changed []string) error

	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the project directory. Empty means the working directory.
		Root string

		// Patterns select the root-relative, slash-separated paths that
		// trigger OnChange, e.g. "castor.lua" and "castor/**/*.lua". An
		// empty list matches every file.
		Patterns []string

		Debounce time.Duration

		// OnChange errors are logged and do not stop the watcher.
		OnChange ChangeFunc

		Logger *slog.Logger
	}

	// Watcher is single use: Run may be called once.
	Watcher struct {
		cfg      Config
		root     string
		debounce time.Duration
		logger   *slog.Logger
		fsw      *fsnotify.Watcher
		started  atomic.Bool
	}
)

// ModulePatterns returns the patterns matching an entry module and every
// module under extensionDir with the given suffix.
func ModulePatterns(entry, extensionDir, suffix string) []string {
	return []string{
		filepath.ToSlash(entry),
		filepath.ToSlash(extensionDir) + "/**/*" + suffix,
	}
}

// New validates cfg and registers the directory tree under Root.
func New(cfg Config) (*Watcher, error) {
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		root:     root,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		fsw:      fsw,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done. It returns nil on cancellation and
// an error when fsnotify fails in a way the watcher cannot recover from.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = map[string]struct{}{}
		timer   *time.Timer
		busy    atomic.Bool
	)

	// fire runs on the timer goroutine. A run still in progress postpones
	// the next one instead of overlapping it.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		w.logger.Debug("modules changed", "paths", changed)
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("watch callback failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			rel, ok := w.relative(evt.Name)
			if !ok || !w.matches(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addTree registers dir and its subdirectories. Unreadable directories are
// skipped with a warning.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && slices.Contains(skipDirs, d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return nil
}

// maybeAddDir extends the watch to a directory created after startup, such as
// a new namespace directory under the extension dir.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("watch new directory", "path", path, "err", err)
	}
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) matches(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	return slices.ContainsFunc(w.cfg.Patterns, func(p string) bool {
		ok, err := doublestar.Match(p, rel)
		return err == nil && ok
	})
}
