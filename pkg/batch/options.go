package batch

import (
	"context"
	"log/slog"
	"time"
)

// SceneDetector is the content-analysis collaborator. Implementations turn a
// media file into an ordered list of scene boundaries and may block for the
// full duration of the external operation.
type SceneDetector interface {
	Detect(ctx context.Context, path string, params DetectorParams) ([]SceneBoundary, error)
}

// SceneSplitter is the artifact-materialization collaborator. It must be
// invoked only when len(scenes) > 0. The progress callback, when non-nil, is
// called after each scene has been written; it exists purely for display and
// implementations may ignore it.
type SceneSplitter interface {
	Split(ctx context.Context, path string, scenes []SceneBoundary, outputDir string, progress func(done int)) error
}

// Hooks receives batch lifecycle events. Implementations MUST be thread-safe:
// job methods are called concurrently from completing workers.
type Hooks interface {
	// OnJobQueued fires once per job, in submission order, before dispatch.
	OnJobQueued(spec JobSpec) error
	// OnJobStatusUpdate fires on every progress or state change. percent is
	// within [0,100] and non-decreasing per job; it reaches exactly 100 on the
	// terminal transition regardless of outcome.
	OnJobStatusUpdate(jobID int, status Status, message string, percent int) error
	// OnRunComplete fires once after all dispatched jobs have settled.
	OnRunComplete(report Report) error
}

// NoOpHooks is the default do-nothing Hooks implementation.
type NoOpHooks struct{}

func (NoOpHooks) OnJobQueued(JobSpec) error                        { return nil }
func (NoOpHooks) OnJobStatusUpdate(int, Status, string, int) error { return nil }
func (NoOpHooks) OnRunComplete(Report) error                       { return nil }

// Options configures a Runner. The Runner copies the struct at construction;
// later edits by the caller apply only to future batches.
type Options struct {
	// OutputDir is the base directory for split scenes. Empty means alongside
	// each input file, matching the per-file default.
	OutputDir string
	// CreateSubdirs places each file's scenes under OutputDir/<stem>/.
	CreateSubdirs bool

	// SaveStats enables writing the aggregated JSON report after the run.
	SaveStats bool
	// StatsFilePath is the report destination when SaveStats is set.
	StatsFilePath string

	// Detector holds the detection parameter snapshot applied to every job in
	// the batch.
	Detector DetectorParams

	// Concurrency bounds the worker pool. Zero selects
	// min(runtime.NumCPU(), 4).
	Concurrency int
	// JobTimeout, when positive, is the per-job deadline. Expiry marks that
	// job as an error without affecting siblings.
	JobTimeout time.Duration

	// DetectorImpl and SplitterImpl are the external collaborators. Both are
	// required.
	DetectorImpl SceneDetector
	SplitterImpl SceneSplitter

	// Logger is the slog handler used for all engine logging. Required.
	Logger slog.Handler
	// EventHooks receives lifecycle events; nil selects NoOpHooks.
	EventHooks Hooks
}
