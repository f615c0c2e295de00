// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"castor-cli/internal/decl"
	"castor-cli/internal/host"
)

const (
	// DefaultEntryName is the entry module file name.
	DefaultEntryName = "castor.lua"
	// DefaultExtensionDir holds extension modules below the project root.
	DefaultExtensionDir = "castor"
	// DefaultSuffix selects extension module files.
	DefaultSuffix = ".lua"
)

type (
	// Module is one module scheduled for loading.
	Module struct {
		// Path is absolute.
		Path string
		// Namespace is the default namespace path for its declarations.
		Namespace string
	}

	// Loader loads the modules of a project root through a host.Runtime.
	Loader struct {
		rt       host.Runtime
		session  *Session
		differ   *Differ
		logger   *slog.Logger
		entry    string
		extDir   string
		suffix   string
		repacked bool
	}

	// Option configures a Loader.
	Option func(*Loader)
)

// WithEntryName overrides DefaultEntryName.
func WithEntryName(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.entry = name
		}
	}
}

// WithExtensionDir overrides DefaultExtensionDir.
func WithExtensionDir(dir string) Option {
	return func(l *Loader) {
		if dir != "" {
			l.extDir = dir
		}
	}
}

// WithSuffix overrides DefaultSuffix.
func WithSuffix(suffix string) Option {
	return func(l *Loader) {
		if suffix != "" {
			l.suffix = suffix
		}
	}
}

// WithRepacked forces repacked mode: type declarations are never reported.
func WithRepacked(repacked bool) Option {
	return func(l *Loader) {
		l.repacked = repacked
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader that records loaded modules in session.
func New(rt host.Runtime, session *Session, opts ...Option) *Loader {
	l := &Loader{
		rt:      rt,
		session: session,
		differ:  NewDiffer(rt),
		logger:  slog.Default(),
		entry:   DefaultEntryName,
		extDir:  DefaultExtensionDir,
		suffix:  DefaultSuffix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Modules returns the modules of rootDir in load order. It fails with
// *ModuleNotFoundError before looking at the extension directory when the
// entry module is not a regular file.
func (l *Loader) Modules(rootDir string) ([]Module, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", rootDir, err)
	}

	entry := filepath.Join(root, l.entry)
	if info, err := os.Stat(entry); err != nil || !info.Mode().IsRegular() {
		return nil, &ModuleNotFoundError{Path: entry}
	}
	modules := []Module{{Path: entry}}

	extRoot := filepath.Join(root, l.extDir)
	if info, err := os.Stat(extRoot); err != nil || !info.IsDir() {
		return modules, nil
	}

	var rels []string
	err = doublestar.GlobWalk(os.DirFS(extRoot), "**/*"+l.suffix, func(p string, d fs.DirEntry) error {
		if !d.IsDir() {
			rels = append(rels, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", extRoot, err)
	}
	slices.Sort(rels)

	for _, rel := range rels {
		ns := path.Dir(rel)
		if ns == "." {
			ns = ""
		}
		modules = append(modules, Module{
			Path:      filepath.Join(extRoot, filepath.FromSlash(rel)),
			Namespace: ns,
		})
	}
	return modules, nil
}

// IsRepacked reports whether type declarations are suppressed, either by
// option or because the runtime defines the repacked marker.
func (l *Loader) IsRepacked() bool {
	if l.repacked {
		return true
	}
	_, ok := l.rt.Type(host.RepackedMarker)
	return ok
}

// LoadAll loads every module of rootDir and yields the declarations each load
// introduced. The sequence stops at the first error, which is yielded.
func (l *Loader) LoadAll(ctx context.Context, rootDir string) iter.Seq2[*decl.Declaration, error] {
	return func(yield func(*decl.Declaration, error) bool) {
		modules, err := l.Modules(rootDir)
		if err != nil {
			yield(nil, err)
			return
		}

		repacked := false
		for _, m := range modules {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			l.logger.Debug("loading module", "path", m.Path, "namespace", m.Namespace)
			decls, err := l.differ.Load(ctx, m.Path, m.Namespace, !repacked)
			if err != nil {
				yield(nil, fmt.Errorf("load %s: %w", m.Path, err))
				return
			}
			l.session.Add(m.Path)

			// The marker may be defined by the module that was just loaded.
			if !repacked && l.IsRepacked() {
				repacked = true
				l.logger.Info("repacked application, skipping type declarations")
				decls = slices.DeleteFunc(decls, func(d *decl.Declaration) bool {
					return d.Kind == decl.KindType
				})
			}

			for _, d := range decls {
				if !yield(d, nil) {
					return
				}
			}
		}
	}
}
