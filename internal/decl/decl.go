// SPDX-License-Identifier: MPL-2.0

// Package decl defines the declarations a host runtime surfaces after loading an
// extension module: functions and types, the metadata tags attached to them and a
// handle to invoke them.
package decl

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// KindFunction is a callable declaration.
	KindFunction Kind = "function"
	// KindType is a type-like declaration (a Lua table used as a class).
	KindType Kind = "type"

	// TagTask marks a function as a task.
	TagTask TagKind = "task"
	// TagContext marks a function as a context factory.
	TagContext TagKind = "context"
	// TagContextGenerator marks a function that returns named context factories.
	TagContextGenerator TagKind = "context_generator"
	// TagListener marks a function as an event listener. It may appear several times.
	TagListener TagKind = "listener"
	// TagSymfonyTask marks a type as a task wrapping an external console command.
	TagSymfonyTask TagKind = "symfony_task"
	// TagCommand carries the wrapped command's own name for a symfony task.
	TagCommand TagKind = "command"

	// NamespaceSeparator separates namespace segments in qualified names.
	NamespaceSeparator = "/"
)

// ErrNotCallable is returned when invoking a declaration that has no callable body.
var ErrNotCallable = errors.New("declaration is not callable")

type (
	// Kind distinguishes function declarations from type declarations.
	Kind string

	// TagKind identifies which resolver a tag selects.
	TagKind string

	// Tag is one metadata annotation attached to a declaration.
	Tag struct {
		// Kind selects the resolver.
		Kind TagKind
		// Args holds the tag arguments. Callable values are decl.Callable.
		Args map[string]any
		// Err is set when the host could not build the tag (e.g. options were not a table).
		Err error
	}

	// Param describes one declared parameter.
	Param struct {
		Name     string
		Variadic bool
	}

	// Callable is something the host runtime can invoke.
	Callable interface {
		// Name returns a human-readable identifier used in error messages.
		Name() string
		// Params returns the declared parameters. Go-backed callables may report none.
		Params() []Param
		// Call invokes the callable synchronously and returns its converted results.
		// Tables become map[string]any or []any and functions become Callable.
		Call(ctx context.Context, args ...any) ([]any, error)
	}

	// Declaration is a function or type introduced by loading one module.
	Declaration struct {
		// Kind is function or type.
		Kind Kind
		// Name is the qualified, slash-separated name (e.g. "sub/build").
		Name string
		// Module is the absolute path of the module that introduced it.
		Module string
		// Tags are the attached metadata tags in declaration order.
		Tags []Tag
		// Callable invokes a function declaration; nil for types.
		Callable Callable
	}
)

// ShortName returns the leaf segment of the qualified name.
func (d *Declaration) ShortName() string {
	return path.Base(d.Name)
}

// NamespacePath returns the qualified name without its leaf segment, or "" when
// the declaration is not namespaced.
func (d *Declaration) NamespacePath() string {
	dir := path.Dir(d.Name)
	if dir == "." {
		return ""
	}
	return dir
}

// Params returns the declared parameters of a function declaration.
func (d *Declaration) Params() []Param {
	if d.Callable == nil {
		return nil
	}
	return d.Callable.Params()
}

// TagsOf returns the tags of the given kind in declaration order.
func (d *Declaration) TagsOf(kind TagKind) []Tag {
	var out []Tag
	for _, t := range d.Tags {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Tag returns the first tag of the given kind.
func (d *Declaration) Tag(kind TagKind) (Tag, bool) {
	for _, t := range d.Tags {
		if t.Kind == kind {
			return t, true
		}
	}
	return Tag{}, false
}

// Invoke calls the declaration's body.
func (d *Declaration) Invoke(ctx context.Context, args ...any) ([]any, error) {
	if d.Callable == nil {
		return nil, fmt.Errorf("%s: %w", d.Name, ErrNotCallable)
	}
	return d.Callable.Call(ctx, args...)
}

// String implements fmt.Stringer.
func (d *Declaration) String() string {
	return fmt.Sprintf("%s %q (%s)", d.Kind, d.Name, d.Module)
}

// QualifiedName joins a slash-separated namespace path and a short name.
// Dots and backslashes are part of a segment.
func QualifiedName(nsPath, short string) string {
	ns := joinSegments(strings.Split(nsPath, NamespaceSeparator))
	if ns == "" {
		return short
	}
	return ns + NamespaceSeparator + short
}

// NormalizeNamespace rewrites a namespace given to castor.namespace to
// slash-separated form. It accepts "/", "\" and "." as separators.
func NormalizeNamespace(ns string) string {
	replaced := strings.NewReplacer(`\`, NamespaceSeparator, ".", NamespaceSeparator).Replace(ns)
	return joinSegments(strings.Split(replaced, NamespaceSeparator))
}

// joinSegments drops empty segments.
func joinSegments(segments []string) string {
	var parts []string
	for _, p := range segments {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, NamespaceSeparator)
}
