// SPDX-License-Identifier: MPL-2.0

// Package descriptor defines the validated records produced by resolving
// declarations. Descriptors are built once per discovery pass and never
// mutated afterwards; they carry a reference to the declaration they came
// from but nothing about whoever consumes them.
package descriptor

import (
	"maps"
	"slices"

	"castor-cli/internal/decl"
	"castor-cli/internal/introspect"
)

const (
	// KindTask is a TaskDescriptor.
	KindTask Kind = "task"
	// KindContext is a ContextDescriptor.
	KindContext Kind = "context"
	// KindContextGenerator is a ContextGeneratorDescriptor.
	KindContextGenerator Kind = "context_generator"
	// KindListener is a ListenerDescriptor.
	KindListener Kind = "listener"
	// KindSymfonyTask is a SymfonyTaskDescriptor.
	KindSymfonyTask Kind = "symfony_task"

	// DefaultContextName names a default context declared without a name.
	DefaultContextName = "default"

	// NamespaceSeparator joins namespace segments and task names.
	NamespaceSeparator = ":"
)

type (
	// Kind identifies the descriptor variant.
	Kind string

	// Descriptor is implemented by every descriptor variant.
	Descriptor interface {
		Kind() Kind
		Declaration() *decl.Declaration
	}

	// TaskDescriptor describes a task function.
	TaskDescriptor struct {
		Name                   string
		Namespace              string
		Description            string
		Aliases                []string
		Enabled                bool
		AllowFailure           bool
		PTY                    bool
		IgnoreValidationErrors bool
		WorkingDirectory       string
		OnSignals              map[string]decl.Callable
		Decl                   *decl.Declaration
	}

	// ContextDescriptor describes a function returning an execution context.
	ContextDescriptor struct {
		Name      string
		IsDefault bool
		Decl      *decl.Declaration
	}

	// ContextGeneratorDescriptor describes a function producing named context
	// factories. Every generator takes no arguments.
	ContextGeneratorDescriptor struct {
		Generators map[string]decl.Callable
		Decl       *decl.Declaration
	}

	// ListenerDescriptor binds a function to an event.
	ListenerDescriptor struct {
		Event    string
		Priority int
		Decl     *decl.Declaration
	}

	// SymfonyTaskDescriptor describes a task wrapping a command of an external
	// console application.
	SymfonyTaskDescriptor struct {
		Name         string
		Namespace    string
		OriginalName string
		Console      []string
		Description  string
		Definition   introspect.CommandDefinition
		Decl         *decl.Declaration
	}
)

var (
	_ Descriptor = (*TaskDescriptor)(nil)
	_ Descriptor = (*ContextDescriptor)(nil)
	_ Descriptor = (*ContextGeneratorDescriptor)(nil)
	_ Descriptor = (*ListenerDescriptor)(nil)
	_ Descriptor = (*SymfonyTaskDescriptor)(nil)
)

// Kind implements Descriptor.
func (*TaskDescriptor) Kind() Kind { return KindTask }

// Declaration implements Descriptor.
func (d *TaskDescriptor) Declaration() *decl.Declaration { return d.Decl }

// FullName returns namespace:name, or name when the namespace is empty.
func (d *TaskDescriptor) FullName() string {
	return join(d.Namespace, d.Name)
}

// Signals returns the names of signals with a handler, sorted.
func (d *TaskDescriptor) Signals() []string {
	return slices.Sorted(maps.Keys(d.OnSignals))
}

// Kind implements Descriptor.
func (*ContextDescriptor) Kind() Kind { return KindContext }

// Declaration implements Descriptor.
func (d *ContextDescriptor) Declaration() *decl.Declaration { return d.Decl }

// Kind implements Descriptor.
func (*ContextGeneratorDescriptor) Kind() Kind { return KindContextGenerator }

// Declaration implements Descriptor.
func (d *ContextGeneratorDescriptor) Declaration() *decl.Declaration { return d.Decl }

// Names returns the generator names, sorted.
func (d *ContextGeneratorDescriptor) Names() []string {
	return slices.Sorted(maps.Keys(d.Generators))
}

// Kind implements Descriptor.
func (*ListenerDescriptor) Kind() Kind { return KindListener }

// Declaration implements Descriptor.
func (d *ListenerDescriptor) Declaration() *decl.Declaration { return d.Decl }

// Kind implements Descriptor.
func (*SymfonyTaskDescriptor) Kind() Kind { return KindSymfonyTask }

// Declaration implements Descriptor.
func (d *SymfonyTaskDescriptor) Declaration() *decl.Declaration { return d.Decl }

// FullName returns namespace:name, or name when the namespace is empty.
func (d *SymfonyTaskDescriptor) FullName() string {
	return join(d.Namespace, d.Name)
}

func join(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + NamespaceSeparator + name
}
