// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the castor CLI commands.
//
// Every command runs against an App, the composition root that loads
// configuration and builds a fresh discovery pass for each request.
package cmd
