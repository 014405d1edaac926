// Package merge projects per-slice transcription spans onto the source
// file's global timeline.
package merge
