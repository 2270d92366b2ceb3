package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

// Splitter implements batch.SceneSplitter with one stream-copy ffmpeg
// invocation per scene. Stream copy avoids re-encoding, so cut points snap to
// the nearest keyframe.
type Splitter struct {
	FFmpegPath string
	logger     *slog.Logger
	run        runCommand
}

// NewSplitter creates a Splitter resolving ffmpeg through PATH.
func NewSplitter(handler slog.Handler) *Splitter {
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	return &Splitter{
		FFmpegPath: defaultFFmpeg,
		logger:     slog.New(handler).With(slog.String("component", "splitter")),
		run:        execRun,
	}
}

// Split writes one output file per scene into outputDir. progress, when
// non-nil, is called after each scene has been written. Callers must not
// invoke Split with an empty scene list.
func (s *Splitter) Split(ctx context.Context, path string, scenes []batch.SceneBoundary, outputDir string, progress func(done int)) error {
	if len(scenes) == 0 {
		return fmt.Errorf("split called with no scenes for %s", path)
	}

	for i, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return err
		}
		outPath := scenePath(outputDir, path, scene.Index)
		args := splitArgs(path, scene, outPath)
		s.logger.Debug("writing scene",
			slog.String("path", path),
			slog.Int("scene", scene.Index),
			slog.String("out", outPath))
		if _, stderr, err := s.run(ctx, s.FFmpegPath, args...); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("splitting scene %d of %s: %w (%s)", scene.Index, path, err, firstLine(stderr))
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return nil
}

// scenePath names a scene output file: <stem>-scene-NNN<ext>.
func scenePath(outputDir, inputPath string, sceneIndex int) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), ext)
	return filepath.Join(outputDir, fmt.Sprintf("%s-scene-%03d%s", stem, sceneIndex, ext))
}

// splitArgs builds the ffmpeg argv for one scene extraction. -ss before -i
// seeks on the input side, which is fast and keyframe-accurate for stream
// copy.
func splitArgs(inputPath string, scene batch.SceneBoundary, outPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", formatSeconds(scene.Start.Seconds()),
		"-to", formatSeconds(scene.End.Seconds()),
		"-i", inputPath,
		"-c", "copy",
		"-map", "0",
		outPath,
	}
}

func formatSeconds(secs float64) string {
	return fmt.Sprintf("%.3f", secs)
}
