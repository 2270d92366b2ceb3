package media

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

func sampleScenes() []batch.SceneBoundary {
	return []batch.SceneBoundary{
		{Index: 1, Start: 0, End: 2500 * time.Millisecond},
		{Index: 2, Start: 2500 * time.Millisecond, End: 10 * time.Second},
	}
}

func TestScenePath(t *testing.T) {
	got := scenePath("/out", "/videos/holiday clip.mp4", 7)
	assert.Equal(t, filepath.Join("/out", "holiday clip-scene-007.mp4"), got)
}

func TestSplitArgs(t *testing.T) {
	scene := batch.SceneBoundary{Index: 2, Start: 2500 * time.Millisecond, End: 10 * time.Second}
	args := splitArgs("/videos/clip.mp4", scene, "/out/clip-scene-002.mp4")
	assert.Equal(t, []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", "2.500",
		"-to", "10.000",
		"-i", "/videos/clip.mp4",
		"-c", "copy",
		"-map", "0",
		"/out/clip-scene-002.mp4",
	}, args)
}

func TestSplitterInvokesOnePassPerScene(t *testing.T) {
	var invocations [][]string
	s := NewSplitter(nil)
	s.run = func(ctx context.Context, name string, args ...string) (string, string, error) {
		invocations = append(invocations, args)
		return "", "", nil
	}

	var progressCalls []int
	progress := func(done int) { progressCalls = append(progressCalls, done) }

	err := s.Split(context.Background(), "/videos/clip.mp4", sampleScenes(), "/out", progress)
	require.NoError(t, err)
	require.Len(t, invocations, 2)
	assert.Contains(t, invocations[0], filepath.Join("/out", "clip-scene-001.mp4"))
	assert.Contains(t, invocations[1], filepath.Join("/out", "clip-scene-002.mp4"))
	assert.Equal(t, []int{1, 2}, progressCalls)
}

func TestSplitterNilProgress(t *testing.T) {
	s := NewSplitter(nil)
	s.run = func(ctx context.Context, name string, args ...string) (string, string, error) {
		return "", "", nil
	}
	assert.NoError(t, s.Split(context.Background(), "clip.mp4", sampleScenes(), "/out", nil))
}

func TestSplitterEmptyScenesIsError(t *testing.T) {
	s := NewSplitter(nil)
	err := s.Split(context.Background(), "clip.mp4", nil, "/out", nil)
	require.Error(t, err)
}

func TestSplitterCommandFailure(t *testing.T) {
	s := NewSplitter(nil)
	s.run = func(ctx context.Context, name string, args ...string) (string, string, error) {
		return "", "muxer does not support non seekable output\ndetail\n", errors.New("exit status 1")
	}

	err := s.Split(context.Background(), "clip.mp4", sampleScenes(), "/out", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene 1")
	assert.Contains(t, err.Error(), "muxer does not support")
}

func TestSplitterStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	s := NewSplitter(nil)
	s.run = func(ctx context.Context, name string, args ...string) (string, string, error) {
		calls++
		cancel()
		return "", "", nil
	}

	err := s.Split(ctx, "clip.mp4", sampleScenes(), "/out", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "no further scenes after cancellation")
}
