// SPDX-License-Identifier: MPL-2.0

// Package issue turns discovery failures into user-facing messages.
//
// An ActionableError names the failed operation and the resource involved and
// carries remediation hints. Well-known failure classes map to an Issue whose
// Markdown guidance is rendered by the CLI.
package issue
