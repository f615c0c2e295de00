// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"castor-cli/internal/decl"
	"castor-cli/internal/descriptor"
	"castor-cli/pkg/slug"
)

// Context resolves the context tag of d. It returns nil when d has none.
func (r *Resolver) Context(d *decl.Declaration) (*descriptor.ContextDescriptor, error) {
	tag, ok := d.Tag(decl.TagContext)
	if !ok {
		return nil, nil
	}
	args, err := decodeTag[contextArgs](d, tag)
	if err != nil {
		return nil, err
	}

	name := args.Name
	switch {
	case name != "":
	case args.Default:
		name = descriptor.DefaultContextName
	default:
		name = slug.Slug(d.ShortName())
	}

	return &descriptor.ContextDescriptor{Name: name, IsDefault: args.Default, Decl: d}, nil
}

// ContextGenerator resolves the context generator tag of d. The declaration is
// invoked once, now, and must return a table of zero-argument functions keyed
// by context name. It returns nil when d has no such tag.
func (r *Resolver) ContextGenerator(ctx context.Context, d *decl.Declaration) (*descriptor.ContextGeneratorDescriptor, error) {
	tag, ok := d.Tag(decl.TagContextGenerator)
	if !ok {
		return nil, nil
	}
	if _, err := decodeTag[generatorArgs](d, tag); err != nil {
		return nil, err
	}

	if len(d.Params()) != 0 {
		return nil, newConfigError(d, decl.TagContextGenerator, nil, "The contexts generator must not have arguments.")
	}

	results, err := d.Invoke(ctx)
	if err != nil {
		return nil, newConfigError(d, decl.TagContextGenerator, err, "The contexts generator failed.")
	}

	generators := map[string]decl.Callable{}
	if len(results) > 0 && results[0] != nil {
		table, err := generatorTable(results[0])
		if err != nil {
			return nil, newConfigError(d, decl.TagContextGenerator, err, "The contexts generator must return a table of named context generators.")
		}
		for _, name := range slices.Sorted(maps.Keys(table)) {
			c, ok := table[name].(decl.Callable)
			if !ok {
				return nil, newConfigError(d, decl.TagContextGenerator, nil, "The context generator %q is not callable.", name)
			}
			if len(c.Params()) != 0 {
				return nil, newConfigError(d, decl.TagContextGenerator, nil, "The context generator %q must not have arguments.", name)
			}
			generators[name] = c
		}
	}

	return &descriptor.ContextGeneratorDescriptor{Generators: generators, Decl: d}, nil
}

// generatorTable accepts the converted form of a Lua table keyed by name. An
// empty table converts to an empty list.
func generatorTable(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		if len(t) == 0 {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("got a list of %d values", len(t))
	default:
		return nil, fmt.Errorf("got %T", v)
	}
}
