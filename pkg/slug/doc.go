// SPDX-License-Identifier: MPL-2.0

// Package slug normalizes arbitrary text into lowercase, hyphen-separated
// identifiers suitable as task and namespace segments.
package slug
