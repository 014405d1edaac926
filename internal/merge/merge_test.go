package merge

import (
	"testing"

	"subgen/internal/jobstore"
	"subgen/internal/srt"
)

func transcribed(index int, startMS, endMS int64, spans ...jobstore.Span) jobstore.Record {
	return jobstore.Record{
		SliceIndex: index,
		StartMS:    startMS,
		EndMS:      endMS,
		Status:     jobstore.StatusTranscribed,
		Payload:    spans,
	}
}

func TestCuesProjectsLocalSpansGlobally(t *testing.T) {
	records := []jobstore.Record{
		transcribed(3, 10_000, 12_000,
			jobstore.Span{Text: "hello", StartMS: 0, EndMS: 500},
			jobstore.Span{Text: "world", StartMS: 500, EndMS: 1_200},
		),
	}
	cues := Cues(records)
	want := []srt.Cue{
		{StartMS: 10_000, EndMS: 10_500, Text: "hello"},
		{StartMS: 10_500, EndMS: 11_200, Text: "world"},
	}
	if len(cues) != len(want) {
		t.Fatalf("expected %d cues, got %d", len(want), len(cues))
	}
	for i := range want {
		if cues[i] != want[i] {
			t.Fatalf("cue %d = %+v, want %+v", i, cues[i], want[i])
		}
	}
}

func TestCuesOrderAcrossSlices(t *testing.T) {
	records := []jobstore.Record{
		transcribed(1, 20_000, 25_000, jobstore.Span{Text: "later", StartMS: 0, EndMS: 1_000}),
		transcribed(0, 5_000, 9_000, jobstore.Span{Text: "earlier", StartMS: 100, EndMS: 900}),
	}
	cues := Cues(records)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "earlier" || cues[1].Text != "later" {
		t.Fatalf("cues out of order: %+v", cues)
	}
}

func TestCuesClipsOverrunToSliceEnd(t *testing.T) {
	records := []jobstore.Record{
		transcribed(0, 1_000, 3_000, jobstore.Span{Text: "runs long", StartMS: 1_500, EndMS: 4_000}),
	}
	cues := Cues(records)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].StartMS != 2_500 || cues[0].EndMS != 3_000 {
		t.Fatalf("expected clip to slice end, got %+v", cues[0])
	}
}

func TestCuesDropsEmptyAndDegenerateSpans(t *testing.T) {
	records := []jobstore.Record{
		transcribed(0, 0, 5_000,
			jobstore.Span{Text: "   ", StartMS: 0, EndMS: 400},
			jobstore.Span{Text: "zero width", StartMS: 1_000, EndMS: 1_000},
			jobstore.Span{Text: "keep", StartMS: 2_000, EndMS: 2_600},
		),
	}
	cues := Cues(records)
	if len(cues) != 1 || cues[0].Text != "keep" {
		t.Fatalf("expected only the real span, got %+v", cues)
	}
}

func TestCuesSkipsUntranscribedRecords(t *testing.T) {
	records := []jobstore.Record{
		{SliceIndex: 0, StartMS: 0, EndMS: 1_000, Status: jobstore.StatusFailed},
		{SliceIndex: 1, StartMS: 2_000, EndMS: 3_000, Status: jobstore.StatusPending},
		transcribed(2, 4_000, 5_000, jobstore.Span{Text: "only me", StartMS: 0, EndMS: 800}),
	}
	cues := Cues(records)
	if len(cues) != 1 || cues[0].Text != "only me" {
		t.Fatalf("expected one cue from the transcribed slice, got %+v", cues)
	}
}

func TestCuesTieBreakBySliceIndex(t *testing.T) {
	records := []jobstore.Record{
		transcribed(1, 1_000, 2_000, jobstore.Span{Text: "second", StartMS: 0, EndMS: 500}),
		transcribed(0, 1_000, 2_000, jobstore.Span{Text: "first", StartMS: 0, EndMS: 500}),
	}
	cues := Cues(records)
	if len(cues) != 2 || cues[0].Text != "first" || cues[1].Text != "second" {
		t.Fatalf("tie-break failed: %+v", cues)
	}
}
