package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/deps"
	"subgen/internal/logging"
	"subgen/internal/pipeline"
)

// partialRunError marks a run that finished but left some slices failed.
// The subtitle file exists; rerunning retries only the failed slices.
type partialRunError struct {
	failed     int
	total      int
	outputPath string
}

func (e *partialRunError) Error() string {
	return fmt.Sprintf("%d of %d slices failed to transcribe; rerun to retry them (partial output at %s)", e.failed, e.total, e.outputPath)
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		language         string
		model            string
		outputPath       string
		silenceThreshold float64
		speechPad        int
		workers          int
		forceRedetect    bool
	)

	cmd := &cobra.Command{
		Use:   "run <media-file>",
		Short: "Generate an SRT subtitle file for a media file",
		Long: `Run the full pipeline against one media file: normalize the audio,
detect speech, slice it, transcribe each slice, and write an SRT file
next to the source. Interrupted runs resume where they left off.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCfg := *cfg
			if model != "" {
				runCfg.Whisper.Model = model
			}
			if cmd.Flags().Changed("silence-threshold") {
				runCfg.Segmentation.SilenceThresholdSeconds = silenceThreshold
			}
			if cmd.Flags().Changed("speech-pad") {
				runCfg.Segmentation.SpeechPadMS = speechPad
			}
			if cmd.Flags().Changed("workers") {
				runCfg.Dispatch.Workers = workers
			}
			if err := runCfg.Validate(); err != nil {
				return err
			}

			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve media path: %w", err)
			}

			if missing := deps.MissingRequired(deps.CheckBinaries(deps.Requirements(&runCfg))); len(missing) > 0 {
				for _, status := range missing {
					fmt.Fprintf(cmd.ErrOrStderr(), "missing dependency: %s (%s)\n", status.Name, status.Detail)
				}
				return fmt.Errorf("%d required external tools are missing; see `subgen deps`", len(missing))
			}

			logPath := filepath.Join(runCfg.Paths.LogDir,
				fmt.Sprintf("subgen-%s.log", time.Now().UTC().Format("20060102T150405Z")))
			logger, err := logging.New(logging.Options{
				Level:   runCfg.Logging.Level,
				Format:  runCfg.Logging.Format,
				Outputs: []string{"stdout", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runner := pipeline.NewRunner(&runCfg, logger)
			result, err := runner.Run(signalCtx, source, pipeline.Options{
				Language:      language,
				OutputPath:    outputPath,
				ForceRedetect: forceRedetect,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Slices", "Transcribed", "Skipped", "Failed", "Elapsed"},
				[][]string{{
					fmt.Sprintf("%d", result.Summary.Total),
					fmt.Sprintf("%d", result.Summary.Transcribed),
					fmt.Sprintf("%d", result.Summary.Skipped),
					fmt.Sprintf("%d", result.Summary.Failed),
					result.Elapsed.Round(time.Millisecond).String(),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Subtitles written to %s\n", result.OutputPath)

			if result.Summary.Partial() {
				return &partialRunError{
					failed:     result.Summary.Failed,
					total:      result.Summary.Total,
					outputPath: result.OutputPath,
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Transcription language hint (blank auto-detects)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Whisper model to use")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Subtitle output path (defaults to the source with .srt)")
	cmd.Flags().Float64Var(&silenceThreshold, "silence-threshold", 0, "Silence gap in seconds that splits speech blocks")
	cmd.Flags().IntVar(&speechPad, "speech-pad", 0, "Padding in milliseconds around each speech block")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent transcription workers")
	cmd.Flags().BoolVar(&forceRedetect, "force-redetect", false, "Ignore cached speech detection results")

	return cmd
}
