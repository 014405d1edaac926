package jobstore_test

import (
	"context"
	"testing"

	"subgen/internal/jobstore"
	"subgen/internal/timeline"
)

func openStore(t *testing.T) *jobstore.Store {
	t.Helper()
	store, err := jobstore.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func plan() []timeline.Slice {
	return []timeline.Slice{
		{Index: 0, StartMS: 0, EndMS: 2000},
		{Index: 1, StartMS: 4000, EndMS: 9000},
		{Index: 2, StartMS: 12000, EndMS: 15000},
	}
}

func TestSyncInsertsPendingRecords(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	reset, err := store.Sync(ctx, plan())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if reset {
		t.Fatal("fresh store should not report a reset")
	}

	records, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.SliceIndex != i {
			t.Fatalf("records out of order: %+v", records)
		}
		if rec.Status != jobstore.StatusPending {
			t.Fatalf("slice %d: expected pending, got %s", i, rec.Status)
		}
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Sync(ctx, plan()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := store.MarkExtracted(ctx, 1); err != nil {
		t.Fatalf("MarkExtracted failed: %v", err)
	}
	if _, err := store.Sync(ctx, plan()); err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}

	rec, err := store.Lookup(ctx, 1)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != jobstore.StatusExtracted {
		t.Fatalf("re-sync must preserve progress, got %s", rec.Status)
	}
}

func TestSyncResetsOnPlanDrift(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Sync(ctx, plan()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := store.MarkTranscribed(ctx, 0, []jobstore.Span{{Text: "hi", StartMS: 0, EndMS: 400}}); err != nil {
		t.Fatalf("MarkTranscribed failed: %v", err)
	}

	shifted := []timeline.Slice{
		{Index: 0, StartMS: 100, EndMS: 2100},
		{Index: 1, StartMS: 4100, EndMS: 9100},
	}
	reset, err := store.Sync(ctx, shifted)
	if err != nil {
		t.Fatalf("Sync with drifted plan failed: %v", err)
	}
	if !reset {
		t.Fatal("expected store reset on boundary drift")
	}
	records, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after reset, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Status != jobstore.StatusPending {
			t.Fatalf("expected pending after reset, got %s", rec.Status)
		}
	}
}

func TestLookupUnseenReturnsFreshPending(t *testing.T) {
	store := openStore(t)
	rec, err := store.Lookup(context.Background(), 42)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.SliceIndex != 42 || rec.Status != jobstore.StatusPending {
		t.Fatalf("unexpected fresh record: %+v", rec)
	}
}

func TestStatusTransitions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Sync(ctx, plan()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if err := store.MarkExtracted(ctx, 0); err != nil {
		t.Fatalf("MarkExtracted failed: %v", err)
	}
	payload := []jobstore.Span{
		{Text: "hello", StartMS: 0, EndMS: 500},
		{Text: "world", StartMS: 500, EndMS: 1200},
	}
	if err := store.MarkTranscribed(ctx, 0, payload); err != nil {
		t.Fatalf("MarkTranscribed failed: %v", err)
	}
	if err := store.MarkFailed(ctx, 1, "engine exit status 1"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	rec, err := store.Lookup(ctx, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != jobstore.StatusTranscribed {
		t.Fatalf("expected transcribed, got %s", rec.Status)
	}
	if len(rec.Payload) != 2 || rec.Payload[1].Text != "world" {
		t.Fatalf("unexpected payload: %+v", rec.Payload)
	}

	failed, err := store.Lookup(ctx, 1)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if failed.Status != jobstore.StatusFailed || failed.ErrorMessage == "" {
		t.Fatalf("unexpected failed record: %+v", failed)
	}
	if !failed.NeedsTranscription() {
		t.Fatal("failed record must remain eligible for retry")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[jobstore.StatusTranscribed] != 1 || stats[jobstore.StatusFailed] != 1 || stats[jobstore.StatusPending] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMarkTranscribedEmptyPayloadSticks(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Sync(ctx, plan()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	// A silent slice legitimately yields no spans; the transition must
	// still be durable so reruns skip the slice.
	if err := store.MarkTranscribed(ctx, 0, nil); err != nil {
		t.Fatalf("MarkTranscribed failed: %v", err)
	}
	if err := store.MarkTranscribed(ctx, 1, []jobstore.Span{}); err != nil {
		t.Fatalf("MarkTranscribed failed: %v", err)
	}

	for _, index := range []int{0, 1} {
		record, err := store.Lookup(ctx, index)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if record.Status != jobstore.StatusTranscribed {
			t.Fatalf("slice %d: expected transcribed, got %s", index, record.Status)
		}
		if record.NeedsTranscription() {
			t.Fatalf("slice %d still reported as needing transcription", index)
		}
		if len(record.Payload) != 0 {
			t.Fatalf("slice %d: expected empty payload, got %+v", index, record.Payload)
		}
	}
}

func TestTransitionUnknownSliceFails(t *testing.T) {
	store := openStore(t)
	if err := store.MarkExtracted(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown slice")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := jobstore.Open(dir, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Sync(ctx, plan()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := store.MarkTranscribed(ctx, 2, []jobstore.Span{{Text: "done", StartMS: 0, EndMS: 900}}); err != nil {
		t.Fatalf("MarkTranscribed failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := jobstore.Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	rec, err := reopened.Lookup(ctx, 2)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != jobstore.StatusTranscribed || len(rec.Payload) != 1 {
		t.Fatalf("state not durable across reopen: %+v", rec)
	}
}
