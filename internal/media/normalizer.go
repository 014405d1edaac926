package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"subgen/internal/logging"
	"subgen/internal/services"
)

// CommandRunner executes an external command. Overridable in tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Waveform is the canonical normalized audio produced once per source file.
// Immutable after Normalize returns.
type Waveform struct {
	Path       string
	SampleRate int
	Channels   int
	DurationMS int64
}

// Normalizer converts arbitrary media into mono 16 kHz PCM WAV via ffmpeg.
type Normalizer struct {
	ffmpegBinary string
	logger       *slog.Logger
	run          CommandRunner
}

// NewNormalizer constructs a Normalizer using the provided ffmpeg binary name.
func NewNormalizer(ffmpegBinary string, logger *slog.Logger) *Normalizer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Normalizer{
		ffmpegBinary: ffmpegBinary,
		logger:       logging.NewComponentLogger(logger, "media"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (n *Normalizer) WithCommandRunner(run CommandRunner) {
	n.run = run
}

// Normalize decodes source into a mono 16 kHz WAV at destination. When the
// destination already exists it is reused, making normalization idempotent
// per working directory.
func (n *Normalizer) Normalize(ctx context.Context, source, destination string) (Waveform, error) {
	if strings.TrimSpace(source) == "" {
		return Waveform{}, services.Wrap(services.ErrValidation, "media", "normalize", "source path is empty", nil)
	}
	if _, err := os.Stat(source); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Waveform{}, services.Wrap(services.ErrMediaRead, "media", "stat source", "source file not found", err)
		}
		return Waveform{}, services.Wrap(services.ErrMediaRead, "media", "stat source", "failed to inspect source file", err)
	}

	if _, err := os.Stat(destination); err == nil {
		n.logger.Debug("reusing normalized audio", logging.String("path", destination))
		return n.describe(destination)
	}

	start := time.Now()
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		destination,
	}
	if err := n.exec(ctx, args...); err != nil {
		// A partial output would shadow the failure on the next run.
		_ = os.Remove(destination)
		return Waveform{}, services.Wrap(services.ErrMediaRead, "media", "normalize", "ffmpeg could not decode source", err)
	}

	wave, err := n.describe(destination)
	if err != nil {
		return Waveform{}, err
	}
	n.logger.Info("audio normalized",
		logging.String("source_file", source),
		logging.Int64("duration_ms", wave.DurationMS),
		logging.Duration("elapsed", time.Since(start)),
	)
	return wave, nil
}

func (n *Normalizer) describe(path string) (Waveform, error) {
	info, err := readWAVInfo(path)
	if err != nil {
		return Waveform{}, services.Wrap(services.ErrMediaRead, "media", "inspect wav", "normalized audio is unreadable", err)
	}
	return Waveform{
		Path:       path,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
		DurationMS: info.DurationMS(),
	}, nil
}

func (n *Normalizer) exec(ctx context.Context, args ...string) error {
	if n.run != nil {
		return n.run(ctx, n.ffmpegBinary, args...)
	}
	return runCommand(ctx, n.ffmpegBinary, args...)
}

func runCommand(ctx context.Context, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}
