package batch

import "time"

// Status describes the processing state of a single job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDetecting Status = "detecting"
	StatusSplitting Status = "splitting"
	StatusSuccess   Status = "success"
	StatusWarning   Status = "warning"
	StatusError     Status = "error"
)

// IsTerminal reports whether s is a final job state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusWarning || s == StatusError
}

// SceneBoundary is one detected sub-range of a media file, as produced by the
// detection collaborator. Times are offsets from the start of the file.
type SceneBoundary struct {
	Index int
	Start time.Duration
	End   time.Duration
}

// DetectorParams is the detector settings snapshot copied into each JobSpec at
// submission time. It is a value type on purpose: later configuration edits
// must not be visible to in-flight jobs.
type DetectorParams struct {
	Threshold   float64 `mapstructure:"threshold" yaml:"threshold"`
	MinSceneLen float64 `mapstructure:"minSceneLen" yaml:"minSceneLen"`
	FrameWindow int     `mapstructure:"frameWindow" yaml:"frameWindow"`
	LumaOnly    bool    `mapstructure:"lumaOnly" yaml:"lumaOnly"`
}

// JobSpec describes one unit of work. It is immutable once handed to the
// worker pool.
type JobSpec struct {
	// ID is the stable 1-based job number, assigned in submission order.
	ID        int
	InputPath string
	// SeqIndex/SeqTotal give the job's position for display ("file 2/7").
	SeqIndex int
	SeqTotal int
	// OutputDir is the resolved destination for split scenes, created before
	// the job is dispatched.
	OutputDir string
	Params    DetectorParams
}

// JobResult is produced exactly once per JobSpec, on every outcome.
type JobResult struct {
	JobID     int
	InputPath string
	Status    Status
	// Scenes is the number of detected boundaries (0 for warning and usually
	// for error outcomes).
	Scenes    int
	StartTime time.Time
	EndTime   time.Time
	// Duration is EndTime - StartTime. It is recorded on the error path too.
	Duration time.Duration
	// OutputDir is set only when Status is StatusSuccess.
	OutputDir string
	// Err holds the failure message when Status is StatusError.
	Err string
}

// Seconds returns the processing duration in seconds, never negative.
func (r JobResult) Seconds() float64 {
	if r.Duration < 0 {
		return 0
	}
	return r.Duration.Seconds()
}
