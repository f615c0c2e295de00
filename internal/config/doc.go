// SPDX-License-Identifier: MPL-2.0

// Package config loads castor's configuration with Viper, using CUE as the
// file format.
//
// The file is read from the user config directory (config.cue) or from
// .castor.cue in the working directory, validated against the embedded
// config_schema.cue, merged over built-in defaults and finally overridden by
// CASTOR_* environment variables.
package config
