package timeline

import "sort"

// Interval is a span of speech on the global timeline, in milliseconds.
// StartMS < EndMS.
type Interval struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// Duration returns the interval length in milliseconds.
func (iv Interval) Duration() int64 {
	return iv.EndMS - iv.StartMS
}

// MergeGaps flattens raw speech spans into a sorted, non-overlapping interval
// list, merging any two adjacent intervals separated by a gap shorter than
// silenceThresholdMS. Zero- and negative-length inputs are dropped.
func MergeGaps(intervals []Interval, silenceThresholdMS int64) []Interval {
	cleaned := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.EndMS > iv.StartMS {
			cleaned = append(cleaned, iv)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	sort.Slice(cleaned, func(i, j int) bool {
		if cleaned[i].StartMS != cleaned[j].StartMS {
			return cleaned[i].StartMS < cleaned[j].StartMS
		}
		return cleaned[i].EndMS < cleaned[j].EndMS
	})

	merged := make([]Interval, 0, len(cleaned))
	current := cleaned[0]
	for _, next := range cleaned[1:] {
		if next.StartMS-current.EndMS < silenceThresholdMS {
			if next.EndMS > current.EndMS {
				current.EndMS = next.EndMS
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

// TotalSpeechMS sums the durations of the provided intervals.
func TotalSpeechMS(intervals []Interval) int64 {
	var total int64
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}
