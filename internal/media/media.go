// Package media provides the exec-based scene detection and splitting
// collaborators used by the batch engine. Detection runs ffmpeg's scene-score
// filter and parses frame timestamps from captured stderr; splitting issues
// one stream-copy ffmpeg invocation per scene. ffprobe supplies container
// duration so the final scene can be closed.
package media

import (
	"bytes"
	"context"
	"os/exec"
)

// Default tool names, resolved through PATH.
const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"
)

// runCommand executes one external tool invocation and returns captured
// stdout and stderr. ffmpeg writes its diagnostics to stderr, so both streams
// are kept separately. Injectable so tests never fork real processes.
type runCommand func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

func execRun(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
