// SPDX-License-Identifier: MPL-2.0

package decl

import "context"

// Func adapts a Go function to Callable. It is used for Go-registered
// declarations and in tests.
type Func struct {
	Label string
	Args  []Param
	Fn    func(ctx context.Context, args ...any) ([]any, error)
}

// Name implements Callable.
func (f *Func) Name() string { return f.Label }

// Params implements Callable.
func (f *Func) Params() []Param { return f.Args }

// Call implements Callable.
func (f *Func) Call(ctx context.Context, args ...any) ([]any, error) {
	if f.Fn == nil {
		return nil, nil
	}
	return f.Fn(ctx, args...)
}
