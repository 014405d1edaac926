package media

import (
	"context"
	"errors"
	"testing"

	"subgen/internal/services"
)

func TestProberInspect(t *testing.T) {
	prober := NewProber("ffprobe")
	prober.WithOutputRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`{
			"streams": [
				{"index": 0, "codec_type": "video", "codec_name": "h264"},
				{"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2},
				{"index": 2, "codec_type": "audio", "codec_name": "ac3", "channels": 6}
			],
			"format": {"format_name": "matroska", "duration": "3600.5"}
		}`), nil
	})

	result, err := prober.Inspect(context.Background(), "movie.mkv")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationMS() != 3_600_500 {
		t.Fatalf("expected 3600500ms, got %d", result.DurationMS())
	}
}

func TestProberInspectFailure(t *testing.T) {
	prober := NewProber("ffprobe")
	prober.WithOutputRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("no such file")
	})

	if _, err := prober.Inspect(context.Background(), "missing.mkv"); !errors.Is(err, services.ErrMediaRead) {
		t.Fatalf("expected ErrMediaRead, got %v", err)
	}
}

func TestProbeResultMissingDuration(t *testing.T) {
	var result ProbeResult
	if result.DurationMS() != 0 {
		t.Fatalf("expected 0 for missing duration, got %d", result.DurationMS())
	}
}
