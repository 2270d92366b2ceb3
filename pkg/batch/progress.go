package batch

import "sync"

// Progress phase milestones, cosmetic only. A job shows 10% once detection
// has started, 50% once boundaries are known, and climbs to 90% as scenes are
// written; the remainder is folded into the terminal jump to 100.
const (
	progressDetectStart = 10
	progressDetectDone  = 40
	progressSplitSpan   = 40
	progressTerminal    = 100
)

// ProgressTracker owns per-job progress state and the row table shared by
// concurrent bars. All mutation is serialized under one mutex; rendering
// itself happens in the Hooks implementation.
type ProgressTracker struct {
	mu    sync.Mutex
	jobs  map[int]*jobProgress
	hooks Hooks
}

type jobProgress struct {
	jobID       int
	description string
	// row is the display row, a deterministic function of submission index so
	// bars never jump between files mid-run.
	row     int
	percent int
	status  Status
	done    bool
}

// JobHandle refers to one job's progress bar.
type JobHandle struct {
	tracker *ProgressTracker
	jobID   int
}

// NewProgressTracker creates a tracker that publishes updates through hooks.
func NewProgressTracker(hooks Hooks) *ProgressTracker {
	if hooks == nil {
		hooks = NoOpHooks{}
	}
	return &ProgressTracker{
		jobs:  make(map[int]*jobProgress),
		hooks: hooks,
	}
}

// Create registers a bar for the given job. The visual row equals the job's
// submission index, not its completion order. Calling Create twice for the
// same job returns the existing handle.
func (t *ProgressTracker) Create(jobID int, description string) *JobHandle {
	t.mu.Lock()
	if _, exists := t.jobs[jobID]; !exists {
		t.jobs[jobID] = &jobProgress{
			jobID:       jobID,
			description: description,
			row:         jobID - 1,
			status:      StatusPending,
		}
	}
	t.mu.Unlock()
	return &JobHandle{tracker: t, jobID: jobID}
}

// Advance adds delta percentage points, clamped so the bar only reaches 100
// through Complete. Calls after the terminal transition are ignored, keeping
// percent monotonically non-decreasing.
func (h *JobHandle) Advance(delta int, status Status) {
	t := h.tracker
	t.mu.Lock()
	jp, ok := t.jobs[h.jobID]
	if !ok || jp.done || delta <= 0 {
		t.mu.Unlock()
		return
	}
	jp.percent += delta
	if jp.percent > progressTerminal-1 {
		jp.percent = progressTerminal - 1
	}
	jp.status = status
	percent := jp.percent
	t.mu.Unlock()

	_ = t.hooks.OnJobStatusUpdate(h.jobID, status, "", percent)
}

// Complete forces the bar to exactly 100. It is idempotent and safe to call
// even if the bar was never advanced, e.g. when a job errors immediately.
func (h *JobHandle) Complete(status Status, message string) {
	t := h.tracker
	t.mu.Lock()
	jp, ok := t.jobs[h.jobID]
	if !ok || jp.done {
		t.mu.Unlock()
		return
	}
	jp.done = true
	jp.percent = progressTerminal
	jp.status = status
	t.mu.Unlock()

	_ = t.hooks.OnJobStatusUpdate(h.jobID, status, message, progressTerminal)
}

// Percent returns the job's current progress, for callers polling state.
func (t *ProgressTracker) Percent(jobID int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if jp, ok := t.jobs[jobID]; ok {
		return jp.percent
	}
	return 0
}

// Row returns the display row assigned to jobID, or -1 when unknown.
func (t *ProgressTracker) Row(jobID int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if jp, ok := t.jobs[jobID]; ok {
		return jp.row
	}
	return -1
}

// DetectStarted marks the start-of-detection milestone.
func (h *JobHandle) DetectStarted() {
	h.Advance(progressDetectStart, StatusDetecting)
}

// DetectFinished marks the end-of-detection milestone.
func (h *JobHandle) DetectFinished() {
	h.Advance(progressDetectDone, StatusDetecting)
}

// SceneWritten advances the splitting share by one scene out of total. The
// apportionment is an even split of the splitting span; integer remainders
// are absorbed by the final jump to 100.
func (h *JobHandle) SceneWritten(total int) {
	if total <= 0 {
		return
	}
	h.Advance(progressSplitSpan/total, StatusSplitting)
}
