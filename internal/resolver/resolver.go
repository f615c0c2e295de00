// SPDX-License-Identifier: MPL-2.0

// Package resolver turns tagged declarations into descriptors.
//
// Each resolver inspects one tag kind, validates its arguments against the
// kind's schema, fills in derived defaults and returns zero or one descriptor
// (listeners: one per tag). Any validation failure is a
// *FunctionConfigurationError and no partial descriptor is produced.
package resolver

import (
	"context"
	"slices"

	"castor-cli/internal/decl"
	"castor-cli/internal/descriptor"
	"castor-cli/internal/introspect"
)

type (
	// FunctionLookup finds global functions by name. It lets signal handlers
	// be given as function names.
	FunctionLookup interface {
		Function(name string) (*decl.Declaration, bool)
	}

	// DefinitionSource provides the command listing of an external console.
	DefinitionSource interface {
		Definitions(ctx context.Context, console []string) (*introspect.Listing, error)
	}

	// Resolver holds the collaborators shared by the resolvers.
	Resolver struct {
		functions      FunctionLookup
		definitions    DefinitionSource
		defaultConsole []string
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// DefaultConsole is the console invocation used when a symfony task names none.
var DefaultConsole = []string{"php", "bin/console"}

// WithDefaultConsole overrides DefaultConsole.
func WithDefaultConsole(argv []string) Option {
	return func(r *Resolver) {
		if len(argv) > 0 {
			r.defaultConsole = slices.Clone(argv)
		}
	}
}

// New creates a Resolver. functions may be nil when signal handlers are only
// given as functions; definitions may be nil when no symfony task is expected.
func New(functions FunctionLookup, definitions DefinitionSource, opts ...Option) *Resolver {
	r := &Resolver{
		functions:      functions,
		definitions:    definitions,
		defaultConsole: slices.Clone(DefaultConsole),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs every resolver that applies to d, in a fixed order: task,
// context, context generator, listeners for functions; symfony task for types.
func (r *Resolver) Resolve(ctx context.Context, d *decl.Declaration) ([]descriptor.Descriptor, error) {
	var out []descriptor.Descriptor

	if d.Kind == decl.KindType {
		st, err := r.SymfonyTask(ctx, d)
		if err != nil {
			return nil, err
		}
		if st != nil {
			out = append(out, st)
		}
		return out, nil
	}

	task, err := r.Task(d)
	if err != nil {
		return nil, err
	}
	if task != nil {
		out = append(out, task)
	}

	c, err := r.Context(d)
	if err != nil {
		return nil, err
	}
	if c != nil {
		out = append(out, c)
	}

	gen, err := r.ContextGenerator(ctx, d)
	if err != nil {
		return nil, err
	}
	if gen != nil {
		out = append(out, gen)
	}

	listeners, err := r.Listeners(d)
	if err != nil {
		return nil, err
	}
	for _, l := range listeners {
		out = append(out, l)
	}
	return out, nil
}
