package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

// rePtsTime extracts the presentation timestamp of each frame the scene
// filter let through.
var rePtsTime = regexp.MustCompile(`pts_time:([0-9]+(?:\.[0-9]+)?)`)

// Detector implements batch.SceneDetector by shelling out to ffmpeg's
// scene-score select filter. The whole file is decoded once; frames whose
// scene score exceeds the threshold become cut points.
type Detector struct {
	FFmpegPath  string
	FFprobePath string
	logger      *slog.Logger
	run         runCommand
}

// NewDetector creates a Detector resolving ffmpeg and ffprobe through PATH.
func NewDetector(handler slog.Handler) *Detector {
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	return &Detector{
		FFmpegPath:  defaultFFmpeg,
		FFprobePath: defaultFFprobe,
		logger:      slog.New(handler).With(slog.String("component", "detector")),
		run:         execRun,
	}
}

// Detect analyzes path and returns the detected scenes in order. An empty
// slice (no boundaries above the threshold) is not an error.
func (d *Detector) Detect(ctx context.Context, path string, params batch.DetectorParams) ([]batch.SceneBoundary, error) {
	duration, err := probeDuration(ctx, d.run, d.FFprobePath, path)
	if err != nil {
		return nil, err
	}

	args := detectArgs(path, params)
	d.logger.Debug("running scene detection",
		slog.String("path", path),
		slog.Float64("threshold", params.Threshold))
	// The select filter output goes to the null muxer; everything we need is
	// in the showinfo lines on stderr.
	_, stderr, err := d.run(ctx, d.FFmpegPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg scene analysis of %s: %w (%s)", path, err, firstLine(stderr))
	}

	cuts := parseCutPoints(stderr)
	scenes := buildScenes(cuts, duration, params.MinSceneLen)
	d.logger.Debug("scene detection finished",
		slog.String("path", path),
		slog.Int("cuts", len(cuts)),
		slog.Int("scenes", len(scenes)))
	return scenes, nil
}

// detectArgs builds the ffmpeg argv for one detection pass. The configured
// threshold lives on a 0-100 scale; ffmpeg's scene score is 0-1. FrameWindow
// has no select-filter equivalent and is not applied here.
func detectArgs(path string, params batch.DetectorParams) []string {
	threshold := params.Threshold / 100
	if threshold <= 0 {
		threshold = 0.17
	}
	if threshold > 1 {
		threshold = 1
	}
	filter := fmt.Sprintf("select='gt(scene,%s)',showinfo", strconv.FormatFloat(threshold, 'f', -1, 64))
	if params.LumaOnly {
		filter = "extractplanes=y," + filter
	}
	return []string{
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-vf", filter,
		"-an",
		"-f", "null",
		"-",
	}
}

// parseCutPoints pulls the pts_time of every passed frame out of the showinfo
// stderr stream, preserving order.
func parseCutPoints(stderr string) []time.Duration {
	matches := rePtsTime.FindAllStringSubmatch(stderr, -1)
	cuts := make([]time.Duration, 0, len(matches))
	for _, m := range matches {
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		cuts = append(cuts, time.Duration(secs*float64(time.Second)))
	}
	return cuts
}

// buildScenes converts cut points into contiguous scene ranges covering
// [0, duration]. Cuts that would produce a scene shorter than minSceneLen
// seconds are suppressed. A file with no cuts yields no scenes at all: the
// caller treats that as the "no scenes detected" warning outcome.
func buildScenes(cuts []time.Duration, duration time.Duration, minSceneLen float64) []batch.SceneBoundary {
	if len(cuts) == 0 {
		return nil
	}
	minLen := time.Duration(minSceneLen * float64(time.Second))

	starts := []time.Duration{0}
	for _, cut := range cuts {
		if cut <= starts[len(starts)-1] {
			continue
		}
		if cut-starts[len(starts)-1] < minLen {
			continue
		}
		if duration-cut < minLen {
			continue
		}
		starts = append(starts, cut)
	}
	if len(starts) == 1 {
		// Every cut was suppressed; a single full-length scene carries no
		// boundary information.
		return nil
	}

	scenes := make([]batch.SceneBoundary, 0, len(starts))
	for i, start := range starts {
		end := duration
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		scenes = append(scenes, batch.SceneBoundary{Index: i + 1, Start: start, End: end})
	}
	return scenes
}
