// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"slices"

	"castor-cli/internal/descriptor"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"

	// CodeDuplicateTask flags two tasks sharing a full name.
	CodeDuplicateTask = "duplicate_task"
	// CodeDuplicateContext flags two contexts sharing a name.
	CodeDuplicateContext = "duplicate_context"
	// CodeMultipleDefaultContexts flags more than one default context.
	CodeMultipleDefaultContexts = "multiple_default_contexts"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Diagnostic is a non-fatal finding about a completed pass, returned to
	// callers rather than written to stderr so the CLI owns rendering.
	Diagnostic struct {
		Severity Severity `json:"severity" yaml:"severity"`
		// Code is a machine-readable identifier such as "duplicate_task".
		Code    string `json:"code" yaml:"code"`
		Message string `json:"message" yaml:"message"`
		// Path is the module the diagnostic refers to, if any.
		Path string `json:"path,omitempty" yaml:"path,omitempty"`
	}

	// Result is a fully drained discovery pass.
	Result struct {
		Descriptors []descriptor.Descriptor
		Diagnostics []Diagnostic
		// Files lists every module loaded by the Discoverer so far.
		Files []string
	}
)

// Collect drains one pass over rootDir. A pass either succeeds as a whole or
// returns its error; no partial result is returned.
func Collect(ctx context.Context, d *Discoverer, rootDir string) (*Result, error) {
	var descs []descriptor.Descriptor
	for desc, err := range d.Discover(ctx, rootDir) {
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
	return &Result{
		Descriptors: descs,
		Diagnostics: diagnose(descs),
		Files:       d.Session().Files(),
	}, nil
}

// Tasks returns task and symfony task descriptors keyed by full name. Later
// duplicates do not replace earlier ones.
func (r *Result) Tasks() map[string]descriptor.Descriptor {
	out := map[string]descriptor.Descriptor{}
	for _, d := range r.Descriptors {
		if name, ok := taskName(d); ok {
			if _, dup := out[name]; !dup {
				out[name] = d
			}
		}
	}
	return out
}

// OfKind returns the descriptors of one kind in discovery order.
func (r *Result) OfKind(kind descriptor.Kind) []descriptor.Descriptor {
	return slices.DeleteFunc(slices.Clone(r.Descriptors), func(d descriptor.Descriptor) bool {
		return d.Kind() != kind
	})
}

func taskName(d descriptor.Descriptor) (string, bool) {
	switch v := d.(type) {
	case *descriptor.TaskDescriptor:
		return v.FullName(), true
	case *descriptor.SymfonyTaskDescriptor:
		return v.FullName(), true
	default:
		return "", false
	}
}

func diagnose(descs []descriptor.Descriptor) []Diagnostic {
	var (
		diags    []Diagnostic
		tasks    = map[string]string{}
		contexts = map[string]string{}
		defaults []string
	)

	for _, d := range descs {
		module := ""
		if decl := d.Declaration(); decl != nil {
			module = decl.Module
		}

		if name, ok := taskName(d); ok {
			if first, dup := tasks[name]; dup {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodeDuplicateTask,
					Message:  fmt.Sprintf("task %q is already defined in %s", name, first),
					Path:     module,
				})
				continue
			}
			tasks[name] = module
		}

		c, ok := d.(*descriptor.ContextDescriptor)
		if !ok {
			continue
		}
		if first, dup := contexts[c.Name]; dup {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeDuplicateContext,
				Message:  fmt.Sprintf("context %q is already defined in %s", c.Name, first),
				Path:     module,
			})
		} else {
			contexts[c.Name] = module
		}
		if c.IsDefault {
			defaults = append(defaults, c.Name)
		}
	}

	if len(defaults) > 1 {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeMultipleDefaultContexts,
			Message:  fmt.Sprintf("%d contexts are marked as default: %v", len(defaults), defaults),
		})
	}
	return diags
}
