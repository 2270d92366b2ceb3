package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Report is the persisted run summary. Field names and layout are stable:
// external tooling consumes this schema.
type Report struct {
	// TotalFilesSubmitted counts every job that entered the batch, including
	// jobs never dispatched because the run was cancelled.
	TotalFilesSubmitted int          `json:"total_files_submitted"`
	TotalFilesProcessed int          `json:"total_files_processed"`
	TotalScenesDetected int          `json:"total_scenes_detected"`
	FailedFiles         int          `json:"failed_files"`
	ProcessingTimes     []float64    `json:"processing_times"`
	FilesProcessed      []FileRecord `json:"files_processed"`
}

// FileRecord is one per-file entry in the report, in completion order.
type FileRecord struct {
	Filename       string  `json:"filename"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	ScenesDetected int     `json:"scenes_detected"`
	Status         string  `json:"status"`
	Error          *string `json:"error"`
}

// AggregateStats is a point-in-time copy of the aggregator's state.
type AggregateStats struct {
	TotalSubmitted      int
	TotalCompleted      int
	TotalFailed         int
	TotalScenesDetected int
	Durations           []float64
	Records             []JobResult
}

// SuccessRate returns the completed-minus-failed share as a percentage. It is
// exactly 0, not NaN, when nothing has completed.
func (s AggregateStats) SuccessRate() float64 {
	if s.TotalCompleted == 0 {
		return 0
	}
	return float64(s.TotalCompleted-s.TotalFailed) / float64(s.TotalCompleted) * 100
}

// AverageDuration returns the mean recorded duration in seconds, 0 when no
// durations have been recorded.
func (s AggregateStats) AverageDuration() float64 {
	if len(s.Durations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range s.Durations {
		sum += d
	}
	return sum / float64(len(s.Durations))
}

// StatsAggregator accumulates counters and per-file records across job
// completions. One mutex guards every related field so concurrent Record
// calls can never produce partial updates between the counters and the
// records slice. The aggregator exclusively owns its state for the duration
// of one batch run and is discarded after the summary is produced.
type StatsAggregator struct {
	mu        sync.Mutex
	submitted int
	completed int
	failed    int
	scenes    int
	durations []float64
	records   []JobResult
}

// NewStatsAggregator creates an aggregator expecting the given number of
// submitted jobs.
func NewStatsAggregator(submitted int) *StatsAggregator {
	return &StatsAggregator{
		submitted: submitted,
		durations: make([]float64, 0, submitted),
		records:   make([]JobResult, 0, submitted),
	}
}

// Record folds one job result into the aggregate. Safe for concurrent use by
// completing workers; records keep completion order, not submission order.
func (a *StatsAggregator) Record(res JobResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completed++
	if res.Status == StatusError {
		a.failed++
	}
	a.scenes += res.Scenes
	a.durations = append(a.durations, res.Seconds())
	a.records = append(a.records, res)
}

// Snapshot returns a consistent copy of the current state.
func (a *StatsAggregator) Snapshot() AggregateStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	durations := make([]float64, len(a.durations))
	copy(durations, a.durations)
	records := make([]JobResult, len(a.records))
	copy(records, a.records)
	return AggregateStats{
		TotalSubmitted:      a.submitted,
		TotalCompleted:      a.completed,
		TotalFailed:         a.failed,
		TotalScenesDetected: a.scenes,
		Durations:           durations,
		Records:             records,
	}
}

// SummaryText renders the end-of-run summary printed after every batch that
// submitted at least one job.
func (a *StatsAggregator) SummaryText() string {
	return summaryString(a.Snapshot())
}

func summaryString(s AggregateStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch complete: %d/%d files processed, %d failed\n",
		s.TotalCompleted, s.TotalSubmitted, s.TotalFailed)
	fmt.Fprintf(&b, "Total scenes detected: %d\n", s.TotalScenesDetected)
	fmt.Fprintf(&b, "Success rate: %.1f%%\n", s.SuccessRate())
	fmt.Fprintf(&b, "Average processing time: %.1fs", s.AverageDuration())
	return b.String()
}

// Report builds the persistable report from the current state.
func (a *StatsAggregator) Report() Report {
	s := a.Snapshot()
	files := make([]FileRecord, 0, len(s.Records))
	for _, r := range s.Records {
		rec := FileRecord{
			Filename:       filepath.Base(r.InputPath),
			StartTime:      r.StartTime.Format(time.RFC3339),
			EndTime:        r.EndTime.Format(time.RFC3339),
			ScenesDetected: r.Scenes,
			Status:         string(r.Status),
		}
		if r.Err != "" {
			msg := r.Err
			rec.Error = &msg
		}
		files = append(files, rec)
	}
	if s.Durations == nil {
		s.Durations = []float64{}
	}
	return Report{
		TotalFilesSubmitted: s.TotalSubmitted,
		TotalFilesProcessed: s.TotalCompleted,
		TotalScenesDetected: s.TotalScenesDetected,
		FailedFiles:         s.TotalFailed,
		ProcessingTimes:     s.Durations,
		FilesProcessed:      files,
	}
}

// Export writes the report as indented JSON to path, creating parent
// directories as needed. Failures are wrapped in ErrStatsPersist so the
// caller can report them without failing the run.
func (a *StatsAggregator) Export(path string) error {
	data, err := json.MarshalIndent(a.Report(), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatsPersist, err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrStatsPersist, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStatsPersist, err)
	}
	return nil
}
