// Package batch implements the scene-detection batch engine: a bounded
// worker pool dispatching per-file detection and splitting jobs, live
// progress tracking, thread-safe stats aggregation, and the end-of-run
// report. The detection and splitting operations themselves are external
// collaborators injected through Options.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// sceneDirSuffix is appended to a file's stem to form its scene directory,
// e.g. "clip.mp4" -> "clip-scene".
const sceneDirSuffix = "-scene"

// Runner is the top-level batch orchestrator. It enumerates inputs, builds
// job specs, drives the worker pool, and hands the settled aggregate back to
// the caller.
type Runner struct {
	opts   Options
	logger *slog.Logger
	pool   *WorkerPool
	hooks  Hooks
}

// NewRunner validates opts and builds a Runner. The Options struct is copied;
// configuration edits after this point apply only to future runners.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger handler cannot be nil", ErrConfigValidation)
	}
	if opts.DetectorImpl == nil {
		return nil, fmt.Errorf("%w: detector collaborator is required", ErrConfigValidation)
	}
	if opts.SplitterImpl == nil {
		return nil, fmt.Errorf("%w: splitter collaborator is required", ErrConfigValidation)
	}
	if opts.SaveStats && opts.StatsFilePath == "" {
		return nil, fmt.Errorf("%w: statsFilePath is required when saveStats is enabled", ErrConfigValidation)
	}
	if opts.EventHooks == nil {
		opts.EventHooks = NoOpHooks{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency()
	}

	logger := slog.New(opts.Logger).With(slog.String("component", "runner"))
	return &Runner{
		opts:   opts,
		logger: logger,
		pool:   NewWorkerPool(opts.Concurrency, opts.Logger),
		hooks:  opts.EventHooks,
	}, nil
}

// Run processes the video files in folder. selected, when non-empty, limits
// the batch to those 1-based discovery positions; out-of-range indices are
// silently skipped. The returned report reflects every job that settled.
//
// Pre-flight failures (missing folder) abort the whole batch; per-job
// failures never do.
func (r *Runner) Run(ctx context.Context, folder string, selected []int) (Report, error) {
	files, err := DiscoverVideos(folder)
	if err != nil {
		return Report{}, err
	}
	files = SelectIndices(files, selected)
	if len(files) == 0 {
		r.logger.Info("no video files to process", slog.String("folder", folder))
		return NewStatsAggregator(0).Report(), nil
	}
	return r.RunFiles(ctx, files)
}

// RunFiles processes an explicit list of video files, preserving the given
// order as submission order. Files without an allow-listed extension are
// rejected before any job is submitted.
func (r *Runner) RunFiles(ctx context.Context, files []string) (Report, error) {
	for _, f := range files {
		if !IsVideoFile(f) {
			return Report{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
		}
	}

	specs, err := r.buildSpecs(files)
	if err != nil {
		return Report{}, err
	}

	stats := NewStatsAggregator(len(specs))
	tracker := NewProgressTracker(r.hooks)
	for _, spec := range specs {
		tracker.Create(spec.ID, filepath.Base(spec.InputPath))
		if hookErr := r.hooks.OnJobQueued(spec); hookErr != nil {
			r.logger.Warn("OnJobQueued hook failed",
				slog.Int("jobID", spec.ID), slog.String("error", hookErr.Error()))
		}
	}

	r.logger.Info("starting batch",
		slog.Int("files", len(specs)),
		slog.Int("concurrency", r.pool.Concurrency()))
	start := time.Now()

	execute := func(ctx context.Context, spec JobSpec) JobResult {
		return r.processJob(ctx, spec, tracker)
	}
	r.pool.Run(ctx, specs, execute, stats.Record)

	r.logger.Info("batch finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("completed", stats.Snapshot().TotalCompleted),
		slog.Int("failed", stats.Snapshot().TotalFailed))

	report := stats.Report()
	if r.opts.SaveStats {
		if exportErr := stats.Export(r.opts.StatsFilePath); exportErr != nil {
			// Persist failures must not disturb already-settled results.
			r.logger.Error("failed to write stats report",
				slog.String("path", r.opts.StatsFilePath),
				slog.String("error", exportErr.Error()))
		} else {
			r.logger.Info("stats report written", slog.String("path", r.opts.StatsFilePath))
		}
	}

	if hookErr := r.hooks.OnRunComplete(report); hookErr != nil {
		r.logger.Warn("OnRunComplete hook failed", slog.String("error", hookErr.Error()))
	}
	return report, nil
}

// SummaryFor renders the printable end-of-run summary for a report. The
// submitted count is carried separately from the completed count so a
// cancelled run reads "k/n", not "n/n".
func SummaryFor(report Report) string {
	return summaryString(AggregateStats{
		TotalSubmitted:      report.TotalFilesSubmitted,
		TotalCompleted:      report.TotalFilesProcessed,
		TotalFailed:         report.FailedFiles,
		TotalScenesDetected: report.TotalScenesDetected,
		Durations:           report.ProcessingTimes,
	})
}

// buildSpecs assigns 1-based IDs in discovery order, snapshots the detector
// parameters per job, and resolves (and creates) each output directory before
// dispatch so a failure surfaces as a pre-flight error.
func (r *Runner) buildSpecs(files []string) ([]JobSpec, error) {
	specs := make([]JobSpec, 0, len(files))
	for i, path := range files {
		outDir, err := r.resolveOutputDir(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, JobSpec{
			ID:        i + 1,
			InputPath: path,
			SeqIndex:  i + 1,
			SeqTotal:  len(files),
			OutputDir: outDir,
			Params:    r.opts.Detector, // copied by value
		})
	}
	return specs, nil
}

// resolveOutputDir computes base/<stem>-scene, or base/<stem>/<stem>-scene
// when per-file subdirectories are enabled, and creates it. Creation is
// idempotent; a pre-existing directory is not an error.
func (r *Runner) resolveOutputDir(inputPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	base := r.opts.OutputDir
	if base == "" {
		base = filepath.Dir(inputPath)
	}
	var dir string
	if r.opts.CreateSubdirs {
		dir = filepath.Join(base, stem, stem+sceneDirSuffix)
	} else {
		dir = filepath.Join(base, stem+sceneDirSuffix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return dir, nil
}

// processJob runs one file end to end: detect, then split when boundaries
// were found. It always returns a JobResult and always closes the job's
// progress bar, whatever the outcome.
func (r *Runner) processJob(ctx context.Context, spec JobSpec, tracker *ProgressTracker) JobResult {
	handle := tracker.Create(spec.ID, filepath.Base(spec.InputPath))
	start := time.Now()

	result := func() JobResult {
		// Run cancellation gates dispatch only; a job already in a worker's
		// hands runs to completion. The collaborators therefore get a
		// context detached from ctx, with the per-job deadline layered back
		// on top.
		jobCtx := context.WithoutCancel(ctx)
		if r.opts.JobTimeout > 0 {
			var cancel context.CancelFunc
			jobCtx, cancel = context.WithTimeout(jobCtx, r.opts.JobTimeout)
			defer cancel()
		}

		handle.DetectStarted()
		scenes, err := r.opts.DetectorImpl.Detect(jobCtx, spec.InputPath, spec.Params)
		if err != nil {
			return r.errorResult(spec, start, fmt.Errorf("%w: %v", ErrDetectionFailed, err), jobCtx)
		}
		handle.DetectFinished()

		if len(scenes) == 0 {
			end := time.Now()
			return JobResult{
				JobID:     spec.ID,
				InputPath: spec.InputPath,
				Status:    StatusWarning,
				StartTime: start,
				EndTime:   end,
				Duration:  end.Sub(start),
			}
		}

		total := len(scenes)
		progress := func(done int) { handle.SceneWritten(total) }
		if err := r.opts.SplitterImpl.Split(jobCtx, spec.InputPath, scenes, spec.OutputDir, progress); err != nil {
			return r.errorResult(spec, start, fmt.Errorf("%w: %v", ErrSplitFailed, err), jobCtx)
		}

		end := time.Now()
		return JobResult{
			JobID:     spec.ID,
			InputPath: spec.InputPath,
			Status:    StatusSuccess,
			Scenes:    total,
			StartTime: start,
			EndTime:   end,
			Duration:  end.Sub(start),
			OutputDir: spec.OutputDir,
		}
	}()

	switch result.Status {
	case StatusSuccess:
		handle.Complete(StatusSuccess, fmt.Sprintf("%d scenes", result.Scenes))
	case StatusWarning:
		handle.Complete(StatusWarning, "no scenes detected")
	default:
		handle.Complete(StatusError, result.Err)
	}
	return result
}

// errorResult builds the error-status JobResult for a failed job, recording
// partial timing and collapsing deadline expiry into the timeout message.
func (r *Runner) errorResult(spec JobSpec, start time.Time, err error, jobCtx context.Context) JobResult {
	msg := err.Error()
	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		msg = ErrJobTimeout.Error()
	}
	end := time.Now()
	return JobResult{
		JobID:     spec.ID,
		InputPath: spec.InputPath,
		Status:    StatusError,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Err:       msg,
	}
}
