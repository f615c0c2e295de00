// SPDX-License-Identifier: MPL-2.0

// Package loader sequences extension module loads for a project root and
// reports, per load, only the declarations that load introduced.
//
// The entry module (castor.lua) is loaded first and must exist. Every module
// under the extension directory (castor/) follows in lexicographic path order.
// Loads are strictly sequential: the before/after snapshot taken around each
// load is only meaningful when nothing else mutates the runtime in between.
package loader
