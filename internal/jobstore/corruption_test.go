package jobstore

import (
	"context"
	"testing"

	"subgen/internal/timeline"
)

// White-box: corrupt rows must surface as pending, never be skipped.

func TestCorruptPayloadSurfacesAsPending(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	slices := []timeline.Slice{{Index: 0, StartMS: 0, EndMS: 1000}}
	if _, err := store.Sync(ctx, slices); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := store.MarkTranscribed(ctx, 0, []Span{{Text: "ok", StartMS: 0, EndMS: 500}}); err != nil {
		t.Fatalf("MarkTranscribed failed: %v", err)
	}

	if _, err := store.db.ExecContext(ctx,
		`UPDATE slice_jobs SET payload_json = 'not json at all' WHERE slice_index = 0`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	rec, err := store.Lookup(ctx, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected corrupt record to read as pending, got %s", rec.Status)
	}
	if rec.Payload != nil {
		t.Fatalf("expected payload cleared, got %+v", rec.Payload)
	}
}

func TestTranscribedWithoutPayloadSurfacesAsPending(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	slices := []timeline.Slice{{Index: 0, StartMS: 0, EndMS: 1000}}
	if _, err := store.Sync(ctx, slices); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if _, err := store.db.ExecContext(ctx,
		`UPDATE slice_jobs SET status = 'transcribed', payload_json = NULL WHERE slice_index = 0`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	rec, err := store.Lookup(ctx, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected pending, got %s", rec.Status)
	}
}

func TestUnknownStatusSurfacesAsPending(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	slices := []timeline.Slice{{Index: 0, StartMS: 0, EndMS: 1000}}
	if _, err := store.Sync(ctx, slices); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if _, err := store.db.ExecContext(ctx,
		`UPDATE slice_jobs SET status = 'weird' WHERE slice_index = 0`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	rec, err := store.Lookup(ctx, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected pending, got %s", rec.Status)
	}
}
