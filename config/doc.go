// Package config loads runtime tunables.
//
// Configuration is TOML with human-readable sizes:
//
//	[stack]
//	default-size = "32KiB"
//	min-size     = "1KiB"
//	guard-margin = "256B"
//	cache-cap    = 4
//
//	[heap]
//	track-origins = true
//
//	[sched]
//	workers = 4
//
// Default() returns the values used when no file is given. Loading validates
// the result; a configuration that would make the guard margin swallow whole
// segments is rejected up front rather than failing probes at runtime.
package config
