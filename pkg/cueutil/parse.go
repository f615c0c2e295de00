// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult holds a decoded value and the unified CUE value it came from.
type ParseResult[T any] struct {
	Value *T

	// Unified is kept for callers that need to walk parts of the document the
	// Go type cannot express directly.
	Unified cue.Value
}

// ParseAndDecode compiles data (CUE or JSON), unifies it with the schema
// definition at schemaPath and decodes the result into T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := defaultOptions(opts)
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	root, err := lookupSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	input := ctx.CompileBytes(data, cue.Filename(o.filename))
	if input.Err() != nil {
		return nil, FormatError(input.Err(), o.filename)
	}
	return decode[T](root.Unify(input), o)
}

// DecodeValue encodes v (maps, slices and scalars), unifies it with the schema
// definition at schemaPath and decodes the result into T.
func DecodeValue[T any](schema []byte, schemaPath string, v any, opts ...Option) (*ParseResult[T], error) {
	o := defaultOptions(opts)

	ctx := cuecontext.New()
	root, err := lookupSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	input := ctx.Encode(v)
	if input.Err() != nil {
		return nil, FormatError(input.Err(), o.filename)
	}
	return decode[T](root.Unify(input), o)
}

func lookupSchema(ctx *cue.Context, schema []byte, schemaPath string) (cue.Value, error) {
	compiled := ctx.CompileBytes(schema)
	if compiled.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", compiled.Err())
	}
	root := compiled.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}
	return root, nil
}

func decode[T any](unified cue.Value, o parseOptions) (*ParseResult[T], error) {
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &ParseResult[T]{Value: &out, Unified: unified}, nil
}
