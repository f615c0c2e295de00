// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	_ "embed"
	"fmt"
	"maps"

	"castor-cli/internal/decl"
	"castor-cli/pkg/cueutil"
)

//go:embed tags.cue
var tagSchema []byte

type (
	taskArgs struct {
		Name                   string   `json:"name"`
		Namespace              *string  `json:"namespace,omitempty"`
		Description            string   `json:"description"`
		Aliases                []string `json:"aliases"`
		Enabled                bool     `json:"enabled"`
		AllowFailure           bool     `json:"allow_failure"`
		PTY                    bool     `json:"pty"`
		IgnoreValidationErrors bool     `json:"ignore_validation_errors"`
		WorkingDirectory       string   `json:"working_directory"`
	}

	contextArgs struct {
		Name    string `json:"name"`
		Default bool   `json:"default"`
	}

	generatorArgs struct{}

	listenerArgs struct {
		Event    string `json:"event"`
		Priority int    `json:"priority"`
	}

	symfonyTaskArgs struct {
		Name         string `json:"name"`
		Namespace    string `json:"namespace"`
		OriginalName string `json:"original_name"`
		Description  string `json:"description"`
		Console      any    `json:"console,omitempty"`
	}

	commandArgs struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Aliases     []string `json:"aliases"`
	}
)

// schemaPaths maps each tag kind to its definition in tags.cue.
var schemaPaths = map[decl.TagKind]string{
	decl.TagTask:             "#Task",
	decl.TagContext:          "#Context",
	decl.TagContextGenerator: "#ContextGenerator",
	decl.TagListener:         "#Listener",
	decl.TagSymfonyTask:      "#SymfonyTask",
	decl.TagCommand:          "#Command",
}

// decodeTag validates tag arguments against the schema of its kind. Keys
// listed in skip are removed first; they carry values the schema cannot
// express, such as callables.
func decodeTag[T any](d *decl.Declaration, tag decl.Tag, skip ...string) (*T, error) {
	if tag.Err != nil {
		return nil, instantiateError(d, tag.Kind, tag.Err)
	}

	args := maps.Clone(tag.Args)
	if args == nil {
		args = map[string]any{}
	}
	for _, k := range skip {
		delete(args, k)
	}

	res, err := cueutil.DecodeValue[T](tagSchema, schemaPaths[tag.Kind], args,
		cueutil.WithFilename(fmt.Sprintf("castor.%s options", tag.Kind)))
	if err != nil {
		return nil, instantiateError(d, tag.Kind, err)
	}
	return res.Value, nil
}

func instantiateError(d *decl.Declaration, kind decl.TagKind, cause error) error {
	return newConfigError(d, kind, cause, "Could not instantiate the attribute %q.", string(kind))
}
