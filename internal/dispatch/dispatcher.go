package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"subgen/internal/jobstore"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/timeline"
)

// Extractor cuts one slice WAV out of the normalized waveform.
type Extractor interface {
	Extract(ctx context.Context, wavPath, dir string, slice timeline.Slice) (string, error)
}

// Engine transcribes one slice WAV into spans local to the slice.
type Engine interface {
	Transcribe(ctx context.Context, wavPath, languageHint string) ([]jobstore.Span, error)
}

// Summary reports what a dispatch pass did.
type Summary struct {
	Total       int
	Transcribed int
	Skipped     int
	Failed      int
}

// Partial reports whether some slices failed while others completed.
func (s Summary) Partial() bool {
	return s.Failed > 0
}

// Dispatcher drives slice work through extraction and transcription,
// recording every transition in the job store before moving on.
type Dispatcher struct {
	store     *jobstore.Store
	extractor Extractor
	engine    Engine
	workers   int
	logger    *slog.Logger
}

// New constructs a Dispatcher. Workers below one are clamped to one.
func New(store *jobstore.Store, extractor Extractor, engine Engine, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		store:     store,
		extractor: extractor,
		engine:    engine,
		workers:   workers,
		logger:    logging.NewComponentLogger(logger, "dispatch"),
	}
}

type task struct {
	slice  timeline.Slice
	record jobstore.Record
}

// Run works through slices in index order. Slices already transcribed are
// skipped without touching the engine. Per-slice extraction and engine
// failures mark the slice failed and continue; fatal errors stop the pass.
func (d *Dispatcher) Run(ctx context.Context, wavPath, sliceDir, languageHint string, slices []timeline.Slice) (Summary, error) {
	summary := Summary{Total: len(slices)}

	tasks := make([]task, 0, len(slices))
	for _, slice := range slices {
		record, err := d.store.Lookup(ctx, slice.Index)
		if err != nil {
			return summary, err
		}
		if !record.NeedsTranscription() {
			summary.Skipped++
			d.logger.Debug("slice already transcribed",
				logging.Int("slice_index", slice.Index),
			)
			continue
		}
		tasks = append(tasks, task{slice: slice, record: record})
	}
	if len(tasks) == 0 {
		return summary, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		fatalErr error
	)
	abort := func(err error) {
		mu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		mu.Unlock()
		cancel()
	}

	queue := make(chan task)
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range queue {
				transcribed, err := d.process(runCtx, wavPath, sliceDir, languageHint, tk)
				mu.Lock()
				switch {
				case err != nil:
					mu.Unlock()
					abort(err)
					return
				case transcribed:
					summary.Transcribed++
					mu.Unlock()
				default:
					summary.Failed++
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, tk := range tasks {
		select {
		case queue <- tk:
		case <-runCtx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if fatalErr != nil {
		return summary, fatalErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// process runs one slice to completion. It returns (true, nil) when the
// slice transcribed, (false, nil) when the slice failed but the pass should
// continue, and a non-nil error only for fatal conditions.
func (d *Dispatcher) process(ctx context.Context, wavPath, sliceDir, languageHint string, tk task) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	slicePath, err := d.extractor.Extract(ctx, wavPath, sliceDir, tk.slice)
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		d.logger.Warn("slice extraction failed",
			logging.Int("slice_index", tk.slice.Index),
			logging.Error(err),
		)
		if markErr := d.store.MarkFailed(ctx, tk.slice.Index, err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}
	if tk.record.Status == jobstore.StatusPending {
		if err := d.store.MarkExtracted(ctx, tk.slice.Index); err != nil {
			return false, err
		}
	}

	spans, err := d.engine.Transcribe(ctx, slicePath, languageHint)
	if err != nil {
		if services.Fatal(err) || ctx.Err() != nil {
			return false, err
		}
		d.logger.Warn("slice transcription failed",
			logging.Int("slice_index", tk.slice.Index),
			logging.Error(err),
		)
		if markErr := d.store.MarkFailed(ctx, tk.slice.Index, err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}

	if err := d.store.MarkTranscribed(ctx, tk.slice.Index, spans); err != nil {
		return false, err
	}
	d.logger.Info("slice transcribed",
		logging.Int("slice_index", tk.slice.Index),
		logging.Int("spans", len(spans)),
	)
	return true, nil
}
