package config

const (
	defaultWorkDir                 = "~/.local/share/subgen/work"
	defaultLogDir                  = "~/.local/share/subgen/logs"
	defaultVADCommand              = "pyannote-vad"
	defaultWhisperCommand          = "whisper"
	defaultWhisperModel            = "base"
	defaultWhisperMaxAttempts      = 3
	defaultWhisperRetryDelaySec    = 5
	defaultSilenceThresholdSeconds = 2.0
	defaultSpeechPadMS             = 300
	defaultDispatchWorkers         = 1
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		VAD: VAD{
			Command: defaultVADCommand,
		},
		Whisper: Whisper{
			Command:           defaultWhisperCommand,
			Model:             defaultWhisperModel,
			MaxAttempts:       defaultWhisperMaxAttempts,
			RetryDelaySeconds: defaultWhisperRetryDelaySec,
		},
		Segmentation: Segmentation{
			SilenceThresholdSeconds: defaultSilenceThresholdSeconds,
			SpeechPadMS:             defaultSpeechPadMS,
		},
		Dispatch: Dispatch{
			Workers: defaultDispatchWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
