// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the schema-first decoding flow shared by the config
// loader, the tag decoders and the console listing parser:
//
//  1. Compile the embedded schema
//  2. Compile (or encode) the input and unify it with a schema definition
//  3. Validate and decode into a Go value
//
// # Usage
//
//	//go:embed listing.cue
//	var listingSchema []byte
//
//	res, err := cueutil.ParseAndDecode[rawListing](listingSchema, out, "#Listing",
//	    cueutil.WithFilename("bin/console list --format=json"))
//
// DecodeValue runs the same flow over an in-memory Go value, which is how tag
// arguments collected from extension modules are checked.
package cueutil
