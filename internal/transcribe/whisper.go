package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/jobstore"
	"subgen/internal/logging"
	"subgen/internal/services"
)

// CommandRunner executes an external command. Overridable in tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// WhisperService runs the whisper CLI per slice, reading the JSON file the
// tool writes next to its input.
type WhisperService struct {
	command    string
	model      string
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
	run        CommandRunner
}

// NewWhisperService creates an engine from configuration.
func NewWhisperService(cfg *config.Config, logger *slog.Logger) *WhisperService {
	return &WhisperService{
		command:    cfg.Whisper.Command,
		model:      cfg.Whisper.Model,
		attempts:   cfg.Whisper.MaxAttempts,
		retryDelay: time.Duration(cfg.Whisper.RetryDelaySeconds) * time.Second,
		logger:     logging.NewComponentLogger(logger, "whisper"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *WhisperService) WithCommandRunner(run CommandRunner) {
	s.run = run
}

// Available reports whether the engine binary can be executed. A missing
// binary is fatal for the run.
func (s *WhisperService) Available() error {
	if s.run != nil {
		return nil
	}
	if _, err := exec.LookPath(s.command); err != nil {
		return services.Wrap(services.ErrModelUnavailable, "whisper", "lookup", fmt.Sprintf("binary %q not found", s.command), err)
	}
	return nil
}

// whisperPayload is the JSON structure the whisper CLI writes.
type whisperPayload struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs the engine over one slice WAV. Timestamps in the returned
// spans are milliseconds local to the slice. Transient engine failures are
// retried up to the configured attempt budget before the slice is reported
// failed.
func (s *WhisperService) Transcribe(ctx context.Context, wavPath, languageHint string) ([]jobstore.Span, error) {
	if strings.TrimSpace(wavPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "whisper", "transcribe", "slice path is empty", nil)
	}
	outputDir := filepath.Dir(wavPath)
	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))+".json")

	args := []string{
		wavPath,
		"--model", s.model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--verbose", "False",
	}
	if lang := NormalizeLanguage(languageHint); lang != "" {
		args = append(args, "--language", lang)
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			s.logger.Warn("retrying transcription",
				logging.String("slice_file", filepath.Base(wavPath)),
				logging.Int("attempt", attempt),
				logging.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		if err := s.exec(ctx, args...); err != nil {
			lastErr = err
			continue
		}
		spans, err := loadSpans(jsonPath)
		if err != nil {
			lastErr = err
			continue
		}
		return spans, nil
	}
	return nil, services.Wrap(services.ErrTranscription, "whisper", "transcribe",
		fmt.Sprintf("engine failed after %d attempts", s.attempts), lastErr)
}

func loadSpans(jsonPath string) ([]jobstore.Span, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read engine output: %w", err)
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse engine output: %w", err)
	}
	spans := make([]jobstore.Span, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		spans = append(spans, jobstore.Span{
			Text:    strings.TrimSpace(seg.Text),
			StartMS: int64(seg.Start * 1000),
			EndMS:   int64(seg.End * 1000),
		})
	}
	return spans, nil
}

func (s *WhisperService) exec(ctx context.Context, args ...string) error {
	if s.run != nil {
		return s.run(ctx, s.command, args...)
	}
	cmd := exec.CommandContext(ctx, s.command, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.command, err, strings.TrimSpace(string(output)))
	}
	return nil
}
