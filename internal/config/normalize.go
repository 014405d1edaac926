package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.VAD.Command = strings.TrimSpace(c.VAD.Command)
	c.VAD.HFToken = strings.TrimSpace(c.VAD.HFToken)
	if c.VAD.HFToken == "" {
		c.VAD.HFToken = strings.TrimSpace(os.Getenv("HF_TOKEN"))
	}

	c.Whisper.Command = strings.TrimSpace(c.Whisper.Command)
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	c.Whisper.Language = strings.TrimSpace(c.Whisper.Language)
	if c.Whisper.MaxAttempts == 0 {
		c.Whisper.MaxAttempts = defaultWhisperMaxAttempts
	}
	if c.Whisper.RetryDelaySeconds == 0 {
		c.Whisper.RetryDelaySeconds = defaultWhisperRetryDelaySec
	}

	if c.Dispatch.Workers == 0 {
		c.Dispatch.Workers = defaultDispatchWorkers
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
