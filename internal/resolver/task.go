// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"maps"
	"slices"
	"strings"

	"castor-cli/internal/decl"
	"castor-cli/internal/descriptor"
	"castor-cli/pkg/slug"
)

const onSignalsKey = "on_signals"

// Task resolves the first task tag of d. It returns nil when d has none.
func (r *Resolver) Task(d *decl.Declaration) (*descriptor.TaskDescriptor, error) {
	tag, ok := d.Tag(decl.TagTask)
	if !ok {
		return nil, nil
	}
	args, err := decodeTag[taskArgs](d, tag, onSignalsKey)
	if err != nil {
		return nil, err
	}

	name := args.Name
	if name == "" {
		name = slug.Slug(d.ShortName())
	}
	namespace := DeriveNamespace(d)
	if args.Namespace != nil {
		namespace = *args.Namespace
	}

	signals, err := r.signalHandlers(d, tag)
	if err != nil {
		return nil, err
	}

	return &descriptor.TaskDescriptor{
		Name:                   name,
		Namespace:              namespace,
		Description:            args.Description,
		Aliases:                args.Aliases,
		Enabled:                args.Enabled,
		AllowFailure:           args.AllowFailure,
		PTY:                    args.PTY,
		IgnoreValidationErrors: args.IgnoreValidationErrors,
		WorkingDirectory:       args.WorkingDirectory,
		OnSignals:              signals,
		Decl:                   d,
	}, nil
}

// DeriveNamespace builds a task namespace from the declaration's namespace
// path: separators become colons and each segment is slugged.
func DeriveNamespace(d *decl.Declaration) string {
	ns := strings.ReplaceAll(d.NamespacePath(), decl.NamespaceSeparator, descriptor.NamespaceSeparator)
	return slug.Segments(ns, descriptor.NamespaceSeparator)
}

// signalHandlers validates the on_signals table. Each value must be a
// function, or the name of a global function.
func (r *Resolver) signalHandlers(d *decl.Declaration, tag decl.Tag) (map[string]decl.Callable, error) {
	raw, ok := tag.Args[onSignalsKey]
	if !ok || raw == nil {
		return map[string]decl.Callable{}, nil
	}

	var table map[string]any
	switch v := raw.(type) {
	case map[string]any:
		table = v
	case []any:
		// An empty Lua table converts to an empty list.
		if len(v) != 0 {
			return nil, newConfigError(d, decl.TagTask, nil, "The %q option must map signal names to callables.", onSignalsKey)
		}
	default:
		return nil, newConfigError(d, decl.TagTask, nil, "The %q option must map signal names to callables.", onSignalsKey)
	}

	out := make(map[string]decl.Callable, len(table))
	for _, signal := range slices.Sorted(maps.Keys(table)) {
		c, ok := r.callable(table[signal])
		if !ok {
			return nil, newConfigError(d, decl.TagTask, nil, "The callable for signal %q is not callable.", signal)
		}
		out[signal] = c
	}
	return out, nil
}

func (r *Resolver) callable(v any) (decl.Callable, bool) {
	switch h := v.(type) {
	case decl.Callable:
		return h, h != nil
	case string:
		if r.functions == nil {
			return nil, false
		}
		fn, ok := r.functions.Function(h)
		if !ok || fn.Callable == nil {
			return nil, false
		}
		return fn.Callable, true
	default:
		return nil, false
	}
}
