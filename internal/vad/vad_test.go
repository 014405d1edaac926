package vad_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"subgen/internal/services"
	"subgen/internal/testsupport"
	"subgen/internal/timeline"
	"subgen/internal/vad"
)

func newService(t *testing.T, run vad.OutputRunner) *vad.Service {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	svc := vad.NewService(cfg, nil)
	svc.WithOutputRunner(run)
	return svc
}

func TestDetectParsesTurns(t *testing.T) {
	svc := newService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`[
			{"start": 0.5, "end": 2.0, "speaker": "SPEAKER_00"},
			{"start": 3.25, "end": 4.75, "speaker": "SPEAKER_01"},
			{"start": 5.0, "end": 5.0}
		]`), nil
	})

	turns, err := svc.Detect(context.Background(), "audio.wav")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	want := []vad.Turn{
		{StartMS: 500, EndMS: 2000, Speaker: "SPEAKER_00"},
		{StartMS: 3250, EndMS: 4750, Speaker: "SPEAKER_01"},
	}
	if !reflect.DeepEqual(turns, want) {
		t.Fatalf("Detect = %+v, want %+v", turns, want)
	}
}

func TestDetectCommandFailureIsModelUnavailable(t *testing.T) {
	svc := newService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("401 unauthorized")
	})
	if _, err := svc.Detect(context.Background(), "audio.wav"); !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestDetectRejectsMalformedOutput(t *testing.T) {
	svc := newService(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("pyannote crashed mid-write"), nil
	})
	if _, err := svc.Detect(context.Background(), "audio.wav"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestIntervalsUnionsAcrossSpeakers(t *testing.T) {
	turns := []vad.Turn{
		{StartMS: 0, EndMS: 2000, Speaker: "SPEAKER_00"},
		{StartMS: 1500, EndMS: 3000, Speaker: "SPEAKER_01"},
		{StartMS: 10000, EndMS: 11000, Speaker: "SPEAKER_00"},
	}
	got := vad.Intervals(turns, 2000)
	want := []timeline.Interval{
		{StartMS: 0, EndMS: 3000},
		{StartMS: 10000, EndMS: 11000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Intervals = %+v, want %+v", got, want)
	}
}
