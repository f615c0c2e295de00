// SPDX-License-Identifier: MPL-2.0

package descriptor

import "strings"

// Summary is a flat, serializable view of a descriptor used for listings.
type Summary struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Event       string   `json:"event,omitempty" yaml:"event,omitempty"`
	Priority    int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Default     bool     `json:"default,omitempty" yaml:"default,omitempty"`
	Generators  []string `json:"generators,omitempty" yaml:"generators,omitempty"`
	Command     string   `json:"command,omitempty" yaml:"command,omitempty"`
	Declaration string   `json:"declaration" yaml:"declaration"`
	Module      string   `json:"module" yaml:"module"`
}

// Summarize flattens d.
func Summarize(d Descriptor) Summary {
	s := Summary{Kind: d.Kind()}
	if decl := d.Declaration(); decl != nil {
		s.Declaration = decl.Name
		s.Module = decl.Module
	}

	switch v := d.(type) {
	case *TaskDescriptor:
		s.Name = v.FullName()
		s.Description = v.Description
		s.Aliases = v.Aliases
	case *SymfonyTaskDescriptor:
		s.Name = v.FullName()
		s.Description = v.Description
		s.Command = strings.Join(append(append([]string{}, v.Console...), v.OriginalName), " ")
	case *ContextDescriptor:
		s.Name = v.Name
		s.Default = v.IsDefault
	case *ContextGeneratorDescriptor:
		s.Name = s.Declaration
		s.Generators = v.Names()
	case *ListenerDescriptor:
		s.Name = s.Declaration
		s.Event = v.Event
		s.Priority = v.Priority
	}
	return s
}
