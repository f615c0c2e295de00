// SPDX-License-Identifier: MPL-2.0

// Package host defines the contract between the discovery engine and the
// runtime that executes extension modules.
package host

import (
	"context"

	"castor-cli/internal/decl"
)

// RepackedMarker is the global type name whose presence signals a repacked
// (bundled) application. Type-level discovery is skipped when it is defined.
const RepackedMarker = "RepackedApplication"

type (
	// Snapshot is the ordered universe of globally visible declarations at one
	// point in time. Names appear in the order they were introduced.
	Snapshot struct {
		Functions []string
		Types     []string
	}

	// Runtime loads extension modules and exposes what they declared.
	// Implementations must give load-once semantics to Require.
	Runtime interface {
		// Require executes the module at path unless it was already loaded.
		// nsPath is the default namespace path for declarations introduced by the
		// module; a module may override it.
		Require(ctx context.Context, path, nsPath string) error
		// Snapshot returns the current global declarations.
		Snapshot() Snapshot
		// Function returns the function declaration registered under a global name.
		Function(name string) (*decl.Declaration, bool)
		// Type returns the type declaration registered under a global name.
		Type(name string) (*decl.Declaration, bool)
	}
)

// Diff returns the names in after that are absent from before, keeping the
// introduction order of after.
func Diff(before, after []string) []string {
	seen := make(map[string]struct{}, len(before))
	for _, n := range before {
		seen[n] = struct{}{}
	}
	var out []string
	for _, n := range after {
		if _, ok := seen[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
