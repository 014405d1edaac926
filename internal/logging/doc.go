// Package logging assembles the structured slog loggers used across subgen.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes typed attribute helpers so pipeline stages emit log
// lines with a consistent shape (component, stage, slice index, run ID). A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
