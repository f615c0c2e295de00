// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"mvdan.cc/sh/v3/shell"

	"castor-cli/internal/decl"
	"castor-cli/internal/descriptor"
)

// errNoDefinitionSource is the cause reported when a symfony task is found but
// the resolver has no way to introspect consoles.
var errNoDefinitionSource = errors.New("no console introspector configured")

// SymfonyTask resolves the symfony task tag of the type declaration d. The
// wrapped console is introspected (through its cache) and the task's original
// name must appear in its listing. It returns nil when d has no such tag.
func (r *Resolver) SymfonyTask(ctx context.Context, d *decl.Declaration) (*descriptor.SymfonyTaskDescriptor, error) {
	tag, ok := d.Tag(decl.TagSymfonyTask)
	if !ok {
		return nil, nil
	}
	args, err := decodeTag[symfonyTaskArgs](d, tag)
	if err != nil {
		return nil, err
	}
	console, err := r.console(args.Console)
	if err != nil {
		return nil, newConfigError(d, decl.TagSymfonyTask, err, "The console option is invalid.")
	}

	if r.definitions == nil {
		return nil, newConfigError(d, decl.TagSymfonyTask, errNoDefinitionSource, "Could not list the commands of the Symfony application.")
	}
	listing, err := r.definitions.Definitions(ctx, console)
	if err != nil {
		return nil, fmt.Errorf("%s %q (%s): %w", d.Kind, d.Name, decl.TagSymfonyTask, err)
	}

	name, original, description := args.Name, args.OriginalName, args.Description
	if cmdTag, ok := d.Tag(decl.TagCommand); ok {
		cmd, err := decodeTag[commandArgs](d, cmdTag)
		if err != nil {
			return nil, err
		}
		if original == "" {
			original = cmd.Name
		}
		if name == "" {
			name = cmd.Name
		}
		if description == "" {
			description = cmd.Description
		}
	}
	if name == "" {
		return nil, newConfigError(d, decl.TagSymfonyTask, nil, "The task command must have a name.")
	}
	if original == "" {
		original = name
	}

	def, ok := listing.Find(original)
	if !ok {
		return nil, newConfigError(d, decl.TagSymfonyTask, nil, "Could not find a command named %q in the Symfony application", name)
	}
	if description == "" {
		description = def.Description
	}

	return &descriptor.SymfonyTaskDescriptor{
		Name:         name,
		Namespace:    args.Namespace,
		OriginalName: original,
		Console:      console,
		Description:  description,
		Definition:   def,
		Decl:         d,
	}, nil
}

// console normalizes the console option: absent means the default
// invocation, a list is taken as argv and a string is split with shell
// quoting rules.
func (r *Resolver) console(v any) ([]string, error) {
	switch c := v.(type) {
	case nil:
		return slices.Clone(r.defaultConsole), nil
	case string:
		fields, err := shell.Fields(c, nil)
		if err != nil {
			return nil, fmt.Errorf("split %q: %w", c, err)
		}
		if len(fields) == 0 {
			return nil, errors.New("empty console command")
		}
		return fields, nil
	case []any:
		if len(c) == 0 {
			return nil, errors.New("empty console command")
		}
		out := make([]string, len(c))
		for i, a := range c {
			s, ok := a.(string)
			if !ok {
				return nil, fmt.Errorf("console argument %d is %T, want string", i, a)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("console must be a list or a string, got %T", v)
	}
}
