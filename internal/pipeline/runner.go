package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subgen/internal/config"
	"subgen/internal/dispatch"
	"subgen/internal/jobstore"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/merge"
	"subgen/internal/services"
	"subgen/internal/srt"
	"subgen/internal/timeline"
	"subgen/internal/transcribe"
	"subgen/internal/vad"
)

// Options tune one run without editing configuration on disk.
type Options struct {
	// Language overrides the configured transcription language hint.
	Language string
	// OutputPath overrides the default <source>.srt destination.
	OutputPath string
	// ForceRedetect ignores cached speech turns and reruns detection.
	ForceRedetect bool
}

// Result summarizes a completed run.
type Result struct {
	RunID       string
	Fingerprint string
	OutputPath  string
	SliceCount  int
	StoreReset  bool
	Summary     dispatch.Summary
	Elapsed     time.Duration
}

// Runner wires the pipeline stages together. Collaborators are injectable
// so tests can stub the external tools.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	prober     *media.Prober
	normalizer *media.Normalizer
	slicer     *media.Slicer
	detector   vad.Detector
	engine     dispatch.Engine
}

// NewRunner builds a Runner with the real external-tool collaborators.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		prober:     media.NewProber(cfg.FFprobeBinary()),
		normalizer: media.NewNormalizer(cfg.FFmpegBinary(), logger),
		slicer:     media.NewSlicer(cfg.FFmpegBinary(), logger),
		detector:   vad.NewService(cfg, logger),
	}
}

// WithDetector replaces the speech detector (for testing).
func (r *Runner) WithDetector(detector vad.Detector) {
	r.detector = detector
}

// WithEngine replaces the transcription engine (for testing).
func (r *Runner) WithEngine(engine dispatch.Engine) {
	r.engine = engine
}

// WithProber replaces the container prober (for testing).
func (r *Runner) WithProber(prober *media.Prober) {
	r.prober = prober
}

// WithNormalizer replaces the audio normalizer (for testing).
func (r *Runner) WithNormalizer(normalizer *media.Normalizer) {
	r.normalizer = normalizer
}

// WithSlicer replaces the slice extractor (for testing).
func (r *Runner) WithSlicer(slicer *media.Slicer) {
	r.slicer = slicer
}

// WorkDirFor returns the per-source working directory for a source file.
// The fingerprint keys resumability: a touched or replaced source gets a
// fresh directory.
func WorkDirFor(cfg *config.Config, sourcePath string) (string, string, error) {
	fingerprint, err := media.Fingerprint(sourcePath)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(cfg.Paths.WorkDir, fingerprint), fingerprint, nil
}

// Run produces a subtitle file for sourcePath. Interrupted runs resume from
// the job store; completed slices are never re-transcribed.
func (r *Runner) Run(ctx context.Context, sourcePath string, opts Options) (Result, error) {
	started := time.Now()
	result := Result{RunID: uuid.NewString()}
	logger := r.logger.With(logging.String(logging.FieldRunID, result.RunID))

	workDir, fingerprint, err := WorkDirFor(r.cfg, sourcePath)
	if err != nil {
		return result, err
	}
	result.Fingerprint = fingerprint
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "failed to create working directory", err)
	}

	lock := flock.New(filepath.Join(workDir, "run.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "lock", "failed to acquire run lock", err)
	}
	if !locked {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "lock", "another run holds this source's working directory", nil)
	}
	defer func() { _ = lock.Unlock() }()

	logger.Info("run started",
		logging.String("source_file", sourcePath),
		logging.String("fingerprint", fingerprint),
		logging.String("work_dir", workDir),
	)

	if err := r.probe(ctx, logger, sourcePath); err != nil {
		return result, err
	}

	wave, err := r.normalize(ctx, logger, sourcePath, workDir)
	if err != nil {
		return result, err
	}

	turns, err := r.detect(ctx, logger, wave.Path, workDir, opts.ForceRedetect)
	if err != nil {
		return result, err
	}

	thresholdMS := int64(r.cfg.Segmentation.SilenceThresholdSeconds * 1000)
	intervals := vad.Intervals(turns, thresholdMS)
	slices := timeline.PlanSlices(intervals, int64(r.cfg.Segmentation.SpeechPadMS), wave.DurationMS)
	result.SliceCount = len(slices)
	speechMS := timeline.TotalSpeechMS(intervals)
	speechRatio := 0.0
	if wave.DurationMS > 0 {
		speechRatio = float64(speechMS) / float64(wave.DurationMS)
	}
	logger.Info("speech segmented",
		logging.Int("turns", len(turns)),
		logging.Int("intervals", len(intervals)),
		logging.Int("slices", len(slices)),
		logging.Int64("speech_ms", speechMS),
		logging.Float64("speech_ratio", speechRatio),
	)

	store, err := jobstore.Open(workDir, logger)
	if err != nil {
		return result, err
	}
	defer func() { _ = store.Close() }()

	reset, err := store.Sync(ctx, slices)
	if err != nil {
		return result, err
	}
	result.StoreReset = reset
	if reset {
		logger.Warn("slice plan changed, job store reset")
	}

	summary, err := r.transcribe(ctx, logger, wave.Path, workDir, opts.Language, slices, store)
	result.Summary = summary
	if err != nil {
		return result, err
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutputPath(sourcePath)
	}
	if err := r.write(ctx, logger, store, outputPath); err != nil {
		return result, err
	}
	result.OutputPath = outputPath
	result.Elapsed = time.Since(started)

	logger.Info("run finished",
		logging.String("output", outputPath),
		logging.Int("transcribed", summary.Transcribed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// DefaultOutputPath places the subtitle file next to its source.
func DefaultOutputPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ".srt"
}

// probe rejects sources ffprobe can open but that carry no audio. A missing
// ffprobe binary skips the check; ffmpeg will surface decode errors anyway.
func (r *Runner) probe(ctx context.Context, logger *slog.Logger, sourcePath string) error {
	if r.prober == nil || !r.prober.Available() {
		logger.Debug("ffprobe unavailable, skipping container inspection")
		return nil
	}
	probe, err := r.prober.Inspect(ctx, sourcePath)
	if err != nil {
		return err
	}
	if probe.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrMediaRead, "pipeline", "probe", "source has no audio streams", nil)
	}
	logger.Debug("source inspected",
		logging.String("container", probe.Format.FormatName),
		logging.Int("audio_streams", probe.AudioStreamCount()),
		logging.Int64("container_duration_ms", probe.DurationMS()),
	)
	return nil
}

func (r *Runner) normalize(ctx context.Context, logger *slog.Logger, sourcePath, workDir string) (media.Waveform, error) {
	logger.Info("stage started", logging.String(logging.FieldStage, "normalize"))
	wave, err := r.normalizer.Normalize(ctx, sourcePath, filepath.Join(workDir, "audio.wav"))
	if err != nil {
		return media.Waveform{}, err
	}
	logger.Info("stage complete",
		logging.String(logging.FieldStage, "normalize"),
		logging.Int64("duration_ms", wave.DurationMS),
	)
	return wave, nil
}

// turnsCacheName holds raw detector output so reruns with different
// segmentation settings skip the expensive model pass.
const turnsCacheName = "turns.json"

func (r *Runner) detect(ctx context.Context, logger *slog.Logger, wavPath, workDir string, force bool) ([]vad.Turn, error) {
	cachePath := filepath.Join(workDir, turnsCacheName)
	if !force {
		if turns, err := readTurnsCache(cachePath); err == nil {
			logger.Info("reusing cached speech turns",
				logging.String(logging.FieldStage, "detect"),
				logging.Int("turns", len(turns)),
			)
			return turns, nil
		}
	}

	logger.Info("stage started", logging.String(logging.FieldStage, "detect"))
	turns, err := r.detector.Detect(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	if err := writeTurnsCache(cachePath, turns); err != nil {
		logger.Warn("failed to cache speech turns", logging.Error(err))
	}
	logger.Info("stage complete",
		logging.String(logging.FieldStage, "detect"),
		logging.Int("turns", len(turns)),
	)
	return turns, nil
}

func readTurnsCache(path string) ([]vad.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var turns []vad.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("corrupt turns cache: %w", err)
	}
	return turns, nil
}

func writeTurnsCache(path string, turns []vad.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *Runner) transcribe(ctx context.Context, logger *slog.Logger, wavPath, workDir, language string, slices []timeline.Slice, store *jobstore.Store) (dispatch.Summary, error) {
	slicesDir := filepath.Join(workDir, "slices")
	if err := os.MkdirAll(slicesDir, 0o755); err != nil {
		return dispatch.Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "failed to create slices directory", err)
	}

	engine := r.engine
	if engine == nil {
		whisper := transcribe.NewWhisperService(r.cfg, logger)
		if err := whisper.Available(); err != nil {
			return dispatch.Summary{}, err
		}
		engine = whisper
	}
	if language == "" {
		language = r.cfg.Whisper.Language
	}

	logger.Info("stage started",
		logging.String(logging.FieldStage, "transcribe"),
		logging.Int("workers", r.cfg.Dispatch.Workers),
	)
	dispatcher := dispatch.New(store, r.slicer, engine, r.cfg.Dispatch.Workers, logger)
	summary, err := dispatcher.Run(ctx, wavPath, slicesDir, language, slices)
	if err != nil {
		return summary, err
	}
	logger.Info("stage complete",
		logging.String(logging.FieldStage, "transcribe"),
		logging.Int("transcribed", summary.Transcribed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (r *Runner) write(ctx context.Context, logger *slog.Logger, store *jobstore.Store, outputPath string) error {
	records, err := store.All(ctx)
	if err != nil {
		return err
	}
	cues := merge.Cues(records)
	if len(cues) == 0 {
		logger.Warn("no speech transcribed, writing empty subtitle file")
	}

	// Write through a temp file so an interrupted run never leaves a
	// truncated subtitle next to the source.
	tmpPath := outputPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "write", "failed to create subtitle file", err)
	}
	if err := srt.Write(file, cues); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrConfiguration, "pipeline", "write", "failed to write subtitle file", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrConfiguration, "pipeline", "write", "failed to flush subtitle file", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrConfiguration, "pipeline", "write", "failed to move subtitle file into place", err)
	}
	logger.Info("subtitles written",
		logging.String("output", outputPath),
		logging.Int("cues", len(cues)),
	)
	return nil
}
