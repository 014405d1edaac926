package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/jobstore"
	"subgen/internal/logging"
	"subgen/internal/pipeline"
	"subgen/internal/srt"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showSlices bool

	cmd := &cobra.Command{
		Use:   "status <media-file>",
		Short: "Show transcription progress for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve media path: %w", err)
			}
			workDir, fingerprint, err := pipeline.WorkDirFor(cfg, source)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if _, err := os.Stat(workDir); err != nil {
				fmt.Fprintf(out, "No run recorded for %s\n", source)
				return nil
			}

			store, err := jobstore.Open(workDir, logging.NewNop())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Source:      %s\n", source)
			fmt.Fprintf(out, "Fingerprint: %s\n", fingerprint)
			fmt.Fprintf(out, "Work dir:    %s\n", workDir)

			total := 0
			rows := make([][]string, 0, len(jobstore.AllStatuses()))
			for _, status := range jobstore.AllStatuses() {
				count := stats[status]
				total += count
				rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
			}
			rows = append(rows, []string{"total", fmt.Sprintf("%d", total)})
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Slices"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if !showSlices {
				return nil
			}
			records, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			sliceRows := make([][]string, 0, len(records))
			for _, record := range records {
				detail := record.ErrorMessage
				if record.Status == jobstore.StatusTranscribed {
					detail = fmt.Sprintf("%d spans", len(record.Payload))
				}
				sliceRows = append(sliceRows, []string{
					fmt.Sprintf("%d", record.SliceIndex),
					srt.Timestamp(record.StartMS),
					srt.Timestamp(record.EndMS),
					string(record.Status),
					truncate(detail, 60),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Slice", "Start", "End", "Status", "Detail"},
				sliceRows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSlices, "slices", false, "List every slice with its window and status")
	return cmd
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
