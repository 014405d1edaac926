// Package pipeline orchestrates a full subtitle run for one source file:
// normalize, detect speech, slice, transcribe, merge, write.
package pipeline
