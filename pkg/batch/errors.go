package batch

import "errors"

// Sentinel errors returned by the batch core. Callers can classify failures
// with errors.Is; per-job failures are additionally folded into JobResult.Err
// and never propagate past the worker boundary.
var (
	// ErrInputNotFound indicates the requested file or folder does not exist.
	// It aborts the affected run before any job is submitted.
	ErrInputNotFound = errors.New("input path not found")

	// ErrUnsupportedFormat indicates a file whose extension is not in the
	// video allow-list. The file is skipped, never submitted.
	ErrUnsupportedFormat = errors.New("unsupported media format")

	// ErrDetectionFailed wraps a failure of the scene-detection collaborator.
	// Always confined to the failing job.
	ErrDetectionFailed = errors.New("scene detection failed")

	// ErrSplitFailed wraps a failure of the splitting collaborator after
	// detection succeeded. Always confined to the failing job.
	ErrSplitFailed = errors.New("scene splitting failed")

	// ErrJobTimeout indicates a job exceeded the configured per-job deadline.
	ErrJobTimeout = errors.New("job deadline exceeded")

	// ErrStatsPersist indicates the aggregated report could not be written.
	// Reported, never fatal to the run.
	ErrStatsPersist = errors.New("failed to persist stats report")

	// ErrConfigValidation indicates the Options failed pre-flight validation.
	// Returned before any job is submitted.
	ErrConfigValidation = errors.New("invalid batch options")
)
