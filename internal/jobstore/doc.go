// Package jobstore persists per-slice processing state in a SQLite database
// inside each source file's working directory, making runs resumable.
//
// Every status transition is a single durable UPDATE, so a crash between
// slices loses at most the in-flight slice's progress. Records that cannot be
// decoded are surfaced as pending rather than skipped, forcing re-derivation.
// Concurrent processes against the same database are not arbitrated here; the
// CLI holds an advisory file lock per working directory instead.
package jobstore
