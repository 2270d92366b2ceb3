package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// probeFormat mirrors the subset of ffprobe's -show_format JSON we consume.
type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeDuration returns the container duration of path via one ffprobe JSON
// call.
func probeDuration(ctx context.Context, run runCommand, ffprobe, path string) (time.Duration, error) {
	stdout, stderr, err := run(ctx, ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, firstLine(stderr))
	}

	var pf probeFormat
	if err := json.Unmarshal([]byte(stdout), &pf); err != nil {
		return 0, fmt.Errorf("parsing ffprobe output for %s: %w", path, err)
	}
	secs, err := strconv.ParseFloat(pf.Format.Duration, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("ffprobe reported no usable duration for %s", path)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// firstLine trims stderr down to its first line for error messages.
func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
