// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail fast on setup errors.
//
// FakeClock drives expiry-sensitive code deterministically. WriteProject lays
// out a project tree of extension modules in a temporary directory.
package testutil
