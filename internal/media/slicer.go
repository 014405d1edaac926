package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/timeline"
)

// Slicer cuts per-slice WAV files out of the normalized waveform.
type Slicer struct {
	ffmpegBinary string
	logger       *slog.Logger
	run          CommandRunner
}

// NewSlicer constructs a Slicer using the provided ffmpeg binary name.
func NewSlicer(ffmpegBinary string, logger *slog.Logger) *Slicer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Slicer{
		ffmpegBinary: ffmpegBinary,
		logger:       logging.NewComponentLogger(logger, "slicer"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Slicer) WithCommandRunner(run CommandRunner) {
	s.run = run
}

// SlicePath returns the canonical location of a slice WAV inside dir. The
// index is zero padded so directory listings sort in slice order.
func SlicePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("slice_%04d.wav", index))
}

// Extract cuts the slice's window out of the normalized waveform into dir.
// An existing slice file is reused so interrupted runs never re-cut audio.
func (s *Slicer) Extract(ctx context.Context, wavPath, dir string, slice timeline.Slice) (string, error) {
	destination := SlicePath(dir, slice.Index)
	if _, err := os.Stat(destination); err == nil {
		s.logger.Debug("reusing extracted slice",
			logging.Int("slice_index", slice.Index),
			logging.String("path", destination),
		)
		return destination, nil
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", wavPath,
		"-ss", formatSeconds(slice.StartMS),
		"-t", formatSeconds(slice.EndMS - slice.StartMS),
		"-c:a", "pcm_s16le",
		destination,
	}
	if err := s.exec(ctx, args...); err != nil {
		_ = os.Remove(destination)
		return "", services.Wrap(services.ErrMediaRead, "slicer", "extract",
			fmt.Sprintf("ffmpeg could not cut slice %d", slice.Index), err)
	}
	s.logger.Debug("slice extracted",
		logging.Int("slice_index", slice.Index),
		logging.Int64("start_ms", slice.StartMS),
		logging.Int64("end_ms", slice.EndMS),
	)
	return destination, nil
}

// formatSeconds renders milliseconds as a fractional seconds value ffmpeg
// accepts for -ss and -t.
func formatSeconds(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

func (s *Slicer) exec(ctx context.Context, args ...string) error {
	if s.run != nil {
		return s.run(ctx, s.ffmpegBinary, args...)
	}
	return runCommand(ctx, s.ffmpegBinary, args...)
}
