// Package config loads, normalizes, and validates subgen's TOML
// configuration. Components receive an immutable *Config rather than reading
// ambient state, keeping them independently testable.
package config
