// Package testutil provides mock implementations of the batch engine's
// collaborator interfaces. Configure expectations with testify/mock
// (e.g. .On("Detect", ...).Return(...)).
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

// MockSceneDetector mocks batch.SceneDetector.
type MockSceneDetector struct {
	mock.Mock
}

// Detect mocks the Detect method.
func (m *MockSceneDetector) Detect(ctx context.Context, path string, params batch.DetectorParams) ([]batch.SceneBoundary, error) {
	args := m.Called(ctx, path, params)
	scenes, _ := args.Get(0).([]batch.SceneBoundary)
	return scenes, args.Error(1)
}

// MockSceneSplitter mocks batch.SceneSplitter.
type MockSceneSplitter struct {
	mock.Mock
}

// Split mocks the Split method. The progress callback is forwarded to the
// expectation so tests can drive it via Run(...).
func (m *MockSceneSplitter) Split(ctx context.Context, path string, scenes []batch.SceneBoundary, outputDir string, progress func(done int)) error {
	args := m.Called(ctx, path, scenes, outputDir, progress)
	return args.Error(0)
}

// MockHooks mocks batch.Hooks.
type MockHooks struct {
	mock.Mock
}

// OnJobQueued mocks the OnJobQueued method.
func (m *MockHooks) OnJobQueued(spec batch.JobSpec) error {
	args := m.Called(spec)
	return args.Error(0)
}

// OnJobStatusUpdate mocks the OnJobStatusUpdate method.
func (m *MockHooks) OnJobStatusUpdate(jobID int, status batch.Status, message string, percent int) error {
	args := m.Called(jobID, status, message, percent)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report batch.Report) error {
	args := m.Called(report)
	return args.Error(0)
}
