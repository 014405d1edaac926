package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.VAD.Command == "" {
		return errors.New("vad.command must be set")
	}
	if c.Whisper.Command == "" {
		return errors.New("whisper.command must be set")
	}
	if c.Whisper.Model == "" {
		return errors.New("whisper.model must be set")
	}
	if c.Whisper.MaxAttempts < 1 {
		return fmt.Errorf("whisper.max_attempts must be at least 1, got %d", c.Whisper.MaxAttempts)
	}
	if c.Whisper.RetryDelaySeconds < 0 {
		return errors.New("whisper.retry_delay_seconds must not be negative")
	}
	if c.Segmentation.SilenceThresholdSeconds < 0 {
		return errors.New("segmentation.silence_threshold_seconds must not be negative")
	}
	if c.Segmentation.SpeechPadMS < 0 {
		return errors.New("segmentation.speech_pad_ms must not be negative")
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch.workers must be at least 1, got %d", c.Dispatch.Workers)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
