package vad

import (
	"context"

	"subgen/internal/timeline"
)

// Turn is a single speech span reported by the detection model. Speaker is
// informational only; segmentation unions spans across speakers.
type Turn struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Speaker string `json:"speaker,omitempty"`
}

// Detector is the voice activity detection collaborator. Implementations run
// the model once over the whole waveform; long-form handling is the model's
// concern, not the caller's.
type Detector interface {
	Detect(ctx context.Context, wavPath string) ([]Turn, error)
}

// Intervals flattens detected turns into sorted non-overlapping speech
// intervals, merging silences shorter than silenceThresholdMS.
func Intervals(turns []Turn, silenceThresholdMS int64) []timeline.Interval {
	raw := make([]timeline.Interval, 0, len(turns))
	for _, turn := range turns {
		raw = append(raw, timeline.Interval{StartMS: turn.StartMS, EndMS: turn.EndMS})
	}
	return timeline.MergeGaps(raw, silenceThresholdMS)
}
