// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"

	"castor-cli/internal/decl"
	"castor-cli/internal/host"
)

// Differ wraps one module load and returns what it introduced.
type Differ struct {
	rt host.Runtime
}

// NewDiffer creates a Differ over rt.
func NewDiffer(rt host.Runtime) *Differ {
	return &Differ{rt: rt}
}

// Load requires the module at path and returns the declarations it introduced:
// functions first, then types, each in introduction order. Types are omitted
// when withTypes is false. A module that was already loaded introduces nothing.
func (d *Differ) Load(ctx context.Context, path, nsPath string, withTypes bool) ([]*decl.Declaration, error) {
	before := d.rt.Snapshot()
	if err := d.rt.Require(ctx, path, nsPath); err != nil {
		return nil, err
	}
	after := d.rt.Snapshot()

	var out []*decl.Declaration
	for _, name := range host.Diff(before.Functions, after.Functions) {
		if fn, ok := d.rt.Function(name); ok {
			out = append(out, fn)
		}
	}
	if !withTypes {
		return out, nil
	}
	for _, name := range host.Diff(before.Types, after.Types) {
		if typ, ok := d.rt.Type(name); ok {
			out = append(out, typ)
		}
	}
	return out, nil
}
