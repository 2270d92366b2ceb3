package batch_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

func resultWith(jobID int, status batch.Status, scenes int, seconds float64, errMsg string) batch.JobResult {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return batch.JobResult{
		JobID:     jobID,
		InputPath: "/videos/clip.mp4",
		Status:    status,
		Scenes:    scenes,
		StartTime: start,
		EndTime:   start.Add(time.Duration(seconds * float64(time.Second))),
		Duration:  time.Duration(seconds * float64(time.Second)),
		Err:       errMsg,
	}
}

func TestSuccessRateZeroWhenNothingCompleted(t *testing.T) {
	stats := batch.NewStatsAggregator(0).Snapshot()
	assert.Equal(t, 0.0, stats.SuccessRate(), "must be exactly 0, not NaN")
	assert.Equal(t, 0.0, stats.AverageDuration())
}

func TestRecordAggregatesScenario(t *testing.T) {
	// Two jobs: one succeeds with 3 scenes in 2.0s, one errors after 2.0s.
	agg := batch.NewStatsAggregator(2)
	agg.Record(resultWith(1, batch.StatusSuccess, 3, 2.0, ""))
	agg.Record(resultWith(2, batch.StatusError, 0, 2.0, "detection failed"))

	s := agg.Snapshot()
	assert.Equal(t, 2, s.TotalSubmitted)
	assert.Equal(t, 2, s.TotalCompleted)
	assert.Equal(t, 1, s.TotalFailed)
	assert.Equal(t, 3, s.TotalScenesDetected)
	assert.InDelta(t, 2.0, s.AverageDuration(), 1e-9,
		"failed job durations are part of the average too")
	assert.InDelta(t, 50.0, s.SuccessRate(), 1e-9)
	assert.Len(t, s.Durations, 2, "durations are recorded on the error path too")
}

func TestRecordKeepsCompletionOrder(t *testing.T) {
	agg := batch.NewStatsAggregator(3)
	agg.Record(resultWith(3, batch.StatusSuccess, 1, 1.0, ""))
	agg.Record(resultWith(1, batch.StatusSuccess, 1, 1.0, ""))
	agg.Record(resultWith(2, batch.StatusSuccess, 1, 1.0, ""))

	s := agg.Snapshot()
	require.Len(t, s.Records, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{s.Records[0].JobID, s.Records[1].JobID, s.Records[2].JobID},
		"records keep completion order, not submission order")
	assert.Equal(t, s.TotalCompleted, len(s.Records))
}

func TestRecordConcurrent(t *testing.T) {
	const workers, perWorker = 8, 50
	agg := batch.NewStatsAggregator(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				agg.Record(resultWith(i, batch.StatusSuccess, 1, 0.5, ""))
			}
		}()
	}
	wg.Wait()

	s := agg.Snapshot()
	assert.Equal(t, workers*perWorker, s.TotalCompleted, "no lost updates under concurrent Record")
	assert.Equal(t, workers*perWorker, s.TotalScenesDetected)
	assert.Len(t, s.Records, workers*perWorker)
}

func TestSummaryText(t *testing.T) {
	agg := batch.NewStatsAggregator(2)
	agg.Record(resultWith(1, batch.StatusSuccess, 3, 2.0, ""))
	agg.Record(resultWith(2, batch.StatusError, 0, 2.0, "boom"))

	text := agg.SummaryText()
	assert.Contains(t, text, "2/2 files processed, 1 failed")
	assert.Contains(t, text, "Total scenes detected: 3")
	assert.Contains(t, text, "Success rate: 50.0%")
	assert.Contains(t, text, "Average processing time: 2.0s")
}

// reportSchema pins the persisted report layout; external tooling depends on
// these exact keys.
const reportSchema = `{
  "type": "object",
  "required": ["total_files_submitted", "total_files_processed", "total_scenes_detected", "failed_files", "processing_times", "files_processed"],
  "properties": {
    "total_files_submitted": {"type": "integer", "minimum": 0},
    "total_files_processed": {"type": "integer", "minimum": 0},
    "total_scenes_detected": {"type": "integer", "minimum": 0},
    "failed_files": {"type": "integer", "minimum": 0},
    "processing_times": {"type": "array", "items": {"type": "number", "minimum": 0}},
    "files_processed": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["filename", "start_time", "end_time", "scenes_detected", "status", "error"],
        "properties": {
          "filename": {"type": "string"},
          "start_time": {"type": "string"},
          "end_time": {"type": "string"},
          "scenes_detected": {"type": "integer", "minimum": 0},
          "status": {"enum": ["success", "warning", "error", "failed"]},
          "error": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

func TestExportSchema(t *testing.T) {
	agg := batch.NewStatsAggregator(2)
	agg.Record(resultWith(1, batch.StatusSuccess, 3, 2.0, ""))
	agg.Record(resultWith(2, batch.StatusError, 0, 1.5, "detection failed"))

	path := filepath.Join(t.TempDir(), "reports", "stats.json")
	require.NoError(t, agg.Export(path), "export creates missing parent directories")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "schema violations: %v", result.Errors())

	var report batch.Report
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.FilesProcessed, 2)

	success, failed := report.FilesProcessed[0], report.FilesProcessed[1]
	assert.Nil(t, success.Error, "successful entries serialize error as null")
	require.NotNil(t, failed.Error)
	assert.Equal(t, "detection failed", *failed.Error)

	_, err = time.Parse(time.RFC3339, success.StartTime)
	assert.NoError(t, err, "timestamps are ISO-8601")
}

func TestSummaryForCancelledRunShowsSubmittedCount(t *testing.T) {
	// Three jobs submitted, one settled before cancellation stopped dispatch.
	agg := batch.NewStatsAggregator(3)
	agg.Record(resultWith(1, batch.StatusSuccess, 2, 1.0, ""))

	report := agg.Report()
	assert.Equal(t, 3, report.TotalFilesSubmitted)
	assert.Equal(t, 1, report.TotalFilesProcessed)
	assert.Contains(t, batch.SummaryFor(report), "1/3 files processed",
		"undispatched jobs must stay visible in the summary")
}

func TestExportFailureIsWrapped(t *testing.T) {
	agg := batch.NewStatsAggregator(0)
	dir := t.TempDir()
	// Target path is a directory: the write must fail, wrapped for reporting.
	err := agg.Export(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, batch.ErrStatsPersist)
}

func TestReportEmptyRun(t *testing.T) {
	report := batch.NewStatsAggregator(0).Report()
	assert.Zero(t, report.TotalFilesSubmitted)
	assert.Zero(t, report.TotalFilesProcessed)
	assert.NotNil(t, report.ProcessingTimes, "empty run serializes [] not null")
	assert.Empty(t, report.FilesProcessed)
}
