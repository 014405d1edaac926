package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMediaRead marks failures to demux or decode the input media file.
	// Fatal for the whole run.
	ErrMediaRead = errors.New("media read error")
	// ErrModelUnavailable marks a VAD or transcription model that cannot be
	// loaded or authorized. Fatal for the whole run, never retried.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrTranscription marks a per-slice transcription failure. Recorded on
	// the affected job record; the run continues.
	ErrTranscription = errors.New("slice transcription error")
	// ErrStoreCorrupt marks an unreadable or inconsistent persisted job
	// record. The record is re-derived as pending, never silently skipped.
	ErrStoreCorrupt = errors.New("job store corruption")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error should abort the whole run rather than be
// isolated to a single slice.
func Fatal(err error) bool {
	return errors.Is(err, ErrMediaRead) ||
		errors.Is(err, ErrModelUnavailable) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
