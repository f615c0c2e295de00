// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"castor-cli/pkg/cueutil"
)

//go:embed listing.cue
var listingSchema []byte

type (
	// Listing is the parsed command listing of a console application.
	Listing struct {
		Commands []CommandDefinition `json:"commands"`
	}

	// CommandDefinition describes one command of the wrapped console.
	CommandDefinition struct {
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Help        string     `json:"help,omitempty"`
		Hidden      bool       `json:"hidden,omitempty"`
		Usage       []string   `json:"usage,omitempty"`
		Arguments   []Argument `json:"arguments"`
		Options     []Option   `json:"options"`
	}

	// Argument is a positional argument of a wrapped command.
	Argument struct {
		Name        string `json:"name"`
		Required    bool   `json:"is_required"`
		IsArray     bool   `json:"is_array"`
		Description string `json:"description"`
		Default     any    `json:"default,omitempty"`
	}

	// Option is a named option of a wrapped command.
	Option struct {
		Name            string `json:"name"`
		Shortcut        string `json:"shortcut"`
		AcceptValue     bool   `json:"accept_value"`
		IsValueRequired bool   `json:"is_value_required"`
		IsMultiple      bool   `json:"is_multiple"`
		Description     string `json:"description"`
		Default         any    `json:"default,omitempty"`
	}

	// rawListing is what the schema decodes directly; definitions are walked
	// separately because they are either a list or a keyed object.
	rawListing struct {
		Commands []rawCommand `json:"commands"`
	}

	rawCommand struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Help        string   `json:"help"`
		Hidden      bool     `json:"hidden"`
		Usage       []string `json:"usage"`
	}
)

// Find returns the command named name.
func (l *Listing) Find(name string) (CommandDefinition, bool) {
	if l == nil {
		return CommandDefinition{}, false
	}
	for _, c := range l.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandDefinition{}, false
}

// Names returns every command name in listing order.
func (l *Listing) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.Commands))
	for i, c := range l.Commands {
		out[i] = c.Name
	}
	return out
}

// ParseListing validates output against the listing schema. source names the
// producing command in error messages.
func ParseListing(output []byte, source string) (*Listing, error) {
	res, err := cueutil.ParseAndDecode[rawListing](listingSchema, output, "#Listing", cueutil.WithFilename(source))
	if err != nil {
		return nil, err
	}

	listing := &Listing{Commands: make([]CommandDefinition, 0, len(res.Value.Commands))}
	for i, raw := range res.Value.Commands {
		def := res.Unified.LookupPath(cue.MakePath(cue.Str("commands"), cue.Index(i), cue.Str("definition")))
		args, err := decodeEntries[Argument](def.LookupPath(cue.ParsePath("arguments")))
		if err != nil {
			return nil, fmt.Errorf("%s: command %q arguments: %w", source, raw.Name, err)
		}
		opts, err := decodeEntries[Option](def.LookupPath(cue.ParsePath("options")))
		if err != nil {
			return nil, fmt.Errorf("%s: command %q options: %w", source, raw.Name, err)
		}
		listing.Commands = append(listing.Commands, CommandDefinition{
			Name:        raw.Name,
			Description: raw.Description,
			Help:        raw.Help,
			Hidden:      raw.Hidden,
			Usage:       raw.Usage,
			Arguments:   args,
			Options:     opts,
		})
	}
	return listing, nil
}

// decodeEntries decodes a keyed object into a slice in field order. A list
// value is always empty by schema.
func decodeEntries[T any](v cue.Value) ([]T, error) {
	if !v.Exists() {
		return []T{}, nil
	}
	v, _ = v.Default()
	if v.Kind() == cue.ListKind {
		return []T{}, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, err
	}
	out := []T{}
	for iter.Next() {
		var entry T
		if err := iter.Value().Decode(&entry); err != nil {
			return nil, fmt.Errorf("%s: %w", iter.Selector(), err)
		}
		out = append(out, entry)
	}
	return out, nil
}
