package jobstore

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a slice's job record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusExtracted   Status = "extracted"
	StatusTranscribed Status = "transcribed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracted,
	StatusTranscribed,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Span is one transcribed text span with timestamps local to its slice.
type Span struct {
	Text    string `json:"text"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// Record is the persisted processing state of one slice.
type Record struct {
	SliceIndex   int
	StartMS      int64
	EndMS        int64
	Status       Status
	Payload      []Span
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NeedsTranscription reports whether the dispatcher still has work to do for
// this record. Failed records are eligible for retry on the next run.
func (r Record) NeedsTranscription() bool {
	return r.Status != StatusTranscribed
}
