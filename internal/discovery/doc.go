// SPDX-License-Identifier: MPL-2.0

// Package discovery runs discovery passes: it loads the modules of a project
// root, resolves every declaration each load introduced and streams the
// resulting descriptors.
//
// File organization:
//   - discovery.go: Discoverer, its options and the lazy Discover sequence
//   - result.go: Collect, which drains a pass into a Result with diagnostics
package discovery
