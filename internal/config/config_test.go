package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	// Defaults use unexpanded ~ paths; Load handles expansion. Validate the
	// loaded form instead.
	loaded, _, _, err := config.Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Whisper.Model != cfg.Whisper.Model {
		t.Fatalf("expected default model %q, got %q", cfg.Whisper.Model, loaded.Whisper.Model)
	}
	if loaded.Dispatch.Workers != 1 {
		t.Fatalf("expected default workers 1, got %d", loaded.Dispatch.Workers)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := writeConfig(t, `
[whisper]
model = "large-v3"
language = "Japanese"
max_attempts = 5

[segmentation]
silence_threshold_seconds = 1.5
speech_pad_ms = 200

[dispatch]
workers = 4
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to resolve, got exists=%v path=%q", exists, resolved)
	}
	if cfg.Whisper.Model != "large-v3" {
		t.Fatalf("unexpected model %q", cfg.Whisper.Model)
	}
	if cfg.Whisper.MaxAttempts != 5 {
		t.Fatalf("unexpected max attempts %d", cfg.Whisper.MaxAttempts)
	}
	if cfg.Segmentation.SilenceThresholdSeconds != 1.5 {
		t.Fatalf("unexpected silence threshold %v", cfg.Segmentation.SilenceThresholdSeconds)
	}
	if cfg.Dispatch.Workers != 4 {
		t.Fatalf("unexpected workers %d", cfg.Dispatch.Workers)
	}
}

func TestLoadRejectsInvalidWorkers(t *testing.T) {
	path := writeConfig(t, `
[dispatch]
workers = -2
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for negative workers")
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected log format error, got %v", err)
	}
}

func TestLoadRejectsNegativePadding(t *testing.T) {
	path := writeConfig(t, `
[segmentation]
speech_pad_ms = -10
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for negative padding")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config did not load: exists=%v err=%v", exists, err)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
work_dir = "` + filepath.Join(dir, "work") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
` + body
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
