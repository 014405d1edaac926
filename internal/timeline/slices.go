package timeline

// Slice is a padded, merged unit of audio extracted for independent
// transcription. Indices are contiguous and 0-based; no two slices of a plan
// overlap on the global timeline. Immutable once planned.
type Slice struct {
	Index   int   `json:"index"`
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// Duration returns the slice length in milliseconds, padding included.
func (s Slice) Duration() int64 {
	return s.EndMS - s.StartMS
}

// PlanSlices expands each interval by padMS on both sides, clamps the result
// to [0, durationMS], and sweeps left to right merging spans that overlap or
// touch. Identical inputs always yield identical plans; resumability is keyed
// on the slice index.
func PlanSlices(intervals []Interval, padMS, durationMS int64) []Slice {
	if durationMS <= 0 || len(intervals) == 0 {
		return nil
	}
	if padMS < 0 {
		padMS = 0
	}

	// MergeGaps with a zero threshold sorts and unions touching spans, which
	// keeps the sweep below a single pass.
	padded := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		start := iv.StartMS - padMS
		if start < 0 {
			start = 0
		}
		end := iv.EndMS + padMS
		if end > durationMS {
			end = durationMS
		}
		if end > start {
			padded = append(padded, Interval{StartMS: start, EndMS: end})
		}
	}
	merged := MergeGaps(padded, 1)

	slices := make([]Slice, 0, len(merged))
	for i, iv := range merged {
		slices = append(slices, Slice{Index: i, StartMS: iv.StartMS, EndMS: iv.EndMS})
	}
	return slices
}
