package merge

import (
	"sort"
	"strings"

	"subgen/internal/jobstore"
	"subgen/internal/srt"
)

// Cues flattens transcribed slice records into global-timeline cues. Span
// timestamps are local to their slice, so each is shifted by the slice's
// global start and clipped to the slice's end. Empty or zero-duration spans
// are dropped. Records that are not transcribed contribute nothing.
func Cues(records []jobstore.Record) []srt.Cue {
	type indexed struct {
		cue        srt.Cue
		sliceIndex int
	}
	var all []indexed
	for _, record := range records {
		if record.Status != jobstore.StatusTranscribed {
			continue
		}
		for _, span := range record.Payload {
			text := strings.TrimSpace(span.Text)
			if text == "" {
				continue
			}
			start := record.StartMS + span.StartMS
			end := record.StartMS + span.EndMS
			// The engine sometimes hallucinates past the audio it was given.
			if end > record.EndMS {
				end = record.EndMS
			}
			if start < record.StartMS {
				start = record.StartMS
			}
			if end <= start {
				continue
			}
			all = append(all, indexed{
				cue:        srt.Cue{StartMS: start, EndMS: end, Text: text},
				sliceIndex: record.SliceIndex,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].cue.StartMS != all[j].cue.StartMS {
			return all[i].cue.StartMS < all[j].cue.StartMS
		}
		return all[i].sliceIndex < all[j].sliceIndex
	})
	cues := make([]srt.Cue, 0, len(all))
	for _, entry := range all {
		cues = append(cues, entry.cue)
	}
	return cues
}
