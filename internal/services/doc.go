// Package services defines the error taxonomy shared by pipeline stages and
// external-tool wrappers.
//
// Errors are tagged with sentinel markers so callers can classify a failure
// (fatal media/model problems versus recoverable per-slice failures) without
// string matching. Use Wrap to attach stage and operation context while
// preserving the marker for errors.Is checks.
package services
