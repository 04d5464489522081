// Package config loads, normalizes, and validates reelpress configuration.
//
// It supplies repository defaults, expands tilde paths, reads TOML files, and
// centralizes every knob the CLI and the assembly engine need. Always obtain
// settings through this package so downstream code receives sanitized values
// and clear validation errors.
package config
