package vad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/services"
)

// OutputRunner executes an external command and returns its stdout.
// Overridable in tests.
type OutputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes the configured VAD command. The command receives the WAV
// path as its only argument and prints JSON speech turns to stdout:
//
//	[{"start": 1.25, "end": 4.7, "speaker": "SPEAKER_00"}, ...]
//
// Start and end are seconds on the waveform's timeline.
type Service struct {
	command string
	hfToken string
	logger  *slog.Logger
	run     OutputRunner
}

// NewService creates a VAD service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		command: cfg.VAD.Command,
		hfToken: cfg.VAD.HFToken,
		logger:  logging.NewComponentLogger(logger, "vad"),
	}
}

// WithOutputRunner sets a custom command runner (for testing).
func (s *Service) WithOutputRunner(run OutputRunner) {
	s.run = run
}

type rawTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Detect runs the VAD model once over the whole waveform. Failures to start
// or authorize the model are fatal for the run and never retried.
func (s *Service) Detect(ctx context.Context, wavPath string) ([]Turn, error) {
	if strings.TrimSpace(wavPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "vad", "detect", "waveform path is empty", nil)
	}

	start := time.Now()
	output, err := s.exec(ctx, wavPath)
	if err != nil {
		return nil, services.Wrap(services.ErrModelUnavailable, "vad", "detect",
			"detection model could not run (set hf_token or HF_TOKEN for gated models)", err)
	}

	var raw []rawTurn
	decoder := json.NewDecoder(bytes.NewReader(output))
	if err := decoder.Decode(&raw); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "vad", "parse output", "detection output is not valid JSON", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, rt := range raw {
		turn := Turn{
			StartMS: int64(rt.Start * 1000),
			EndMS:   int64(rt.End * 1000),
			Speaker: strings.TrimSpace(rt.Speaker),
		}
		if turn.EndMS > turn.StartMS {
			turns = append(turns, turn)
		}
	}

	s.logger.Info("speech detection complete",
		logging.Int("turns", len(turns)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return turns, nil
}

func (s *Service) exec(ctx context.Context, wavPath string) ([]byte, error) {
	if s.run != nil {
		return s.run(ctx, s.command, wavPath)
	}
	cmd := exec.CommandContext(ctx, s.command, wavPath) //nolint:gosec
	if s.hfToken != "" {
		cmd.Env = append(os.Environ(), "HF_TOKEN="+s.hfToken)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", s.command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
