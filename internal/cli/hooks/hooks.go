// Package hooks bridges batch engine events to the CLI's output layer: the
// bubbletea TUI when running in a terminal, verbose structured logging, or a
// single overall progress bar.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pukpuklouis/video-split/pkg/batch"
)

// --- TUI message structs, consumed by internal/cli/ui ---

// JobQueuedMsg signals that a job was submitted to the pool.
type JobQueuedMsg struct {
	Spec batch.JobSpec
}

// JobStatusMsg signals a progress or state change for one job.
type JobStatusMsg struct {
	JobID   int
	Status  batch.Status
	Message string
	Percent int
}

// RunCompleteMsg signals the end of the batch, carrying the final report.
type RunCompleteMsg struct {
	Report batch.Report
}

// TUIProgram is the subset of a bubbletea program the hooks need.
type TUIProgram interface {
	Send(msg interface{})
}

// ProgressBar is the subset of a progress bar the hooks need.
type ProgressBar interface {
	Add(num int) error
	Describe(description string) error
	Close() error
}

// CLIHooks implements batch.Hooks. Exactly one of the three output modes is
// active per run; the mutex serializes progress bar updates arriving from
// concurrent workers.
type CLIHooks struct {
	logger  *slog.Logger
	tui     TUIProgram
	bar     ProgressBar
	verbose bool
	mu      sync.Mutex
}

// New creates CLI hooks. Pass nil tui and bar for plain logging mode.
func New(logger *slog.Logger, verbose bool, tui TUIProgram, bar ProgressBar) *CLIHooks {
	return &CLIHooks{
		logger:  logger,
		tui:     tui,
		bar:     bar,
		verbose: verbose,
	}
}

// OnJobQueued implements batch.Hooks.
func (h *CLIHooks) OnJobQueued(spec batch.JobSpec) error {
	if h.tui != nil {
		h.tui.Send(JobQueuedMsg{Spec: spec})
		return nil
	}
	if h.verbose {
		h.logger.Debug("job queued",
			slog.Int("jobID", spec.ID),
			slog.String("path", spec.InputPath))
	} else if h.bar == nil {
		fmt.Fprintf(os.Stdout, "[%d/%d] %s\n", spec.SeqIndex, spec.SeqTotal, filepath.Base(spec.InputPath))
	}
	return nil
}

// OnJobStatusUpdate implements batch.Hooks. Thread-safe: called concurrently
// from completing workers.
func (h *CLIHooks) OnJobStatusUpdate(jobID int, status batch.Status, message string, percent int) error {
	if h.tui != nil {
		h.tui.Send(JobStatusMsg{JobID: jobID, Status: status, Message: message, Percent: percent})
		return nil
	}

	if h.verbose {
		level := slog.LevelDebug
		if status == batch.StatusError {
			level = slog.LevelError
		} else if status.IsTerminal() {
			level = slog.LevelInfo
		}
		attrs := []any{
			slog.Int("jobID", jobID),
			slog.String("status", string(status)),
			slog.Int("percent", percent),
		}
		if message != "" {
			attrs = append(attrs, slog.String("message", message))
		}
		h.logger.Log(context.Background(), level, "job status", attrs...)
		return nil
	}

	if h.bar != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		if status.IsTerminal() && percent == 100 {
			_ = h.bar.Add(1)
		}
		if status == batch.StatusError {
			h.logger.Error("job failed", slog.Int("jobID", jobID), slog.String("error", message))
		}
		return nil
	}

	// Plain mode: one result line per job.
	if status.IsTerminal() && percent == 100 {
		switch status {
		case batch.StatusSuccess:
			fmt.Fprintf(os.Stdout, "  ✓ job %d: %s\n", jobID, message)
		case batch.StatusWarning:
			fmt.Fprintf(os.Stdout, "  ! job %d: %s\n", jobID, message)
		default:
			fmt.Fprintf(os.Stdout, "  ✗ job %d: %s\n", jobID, message)
		}
	}
	return nil
}

// OnRunComplete implements batch.Hooks. Finishes the progress bar or tells
// the TUI to render its summary; the caller prints the text summary itself.
func (h *CLIHooks) OnRunComplete(report batch.Report) error {
	if h.tui != nil {
		h.tui.Send(RunCompleteMsg{Report: report})
		return nil
	}
	if h.bar != nil {
		h.mu.Lock()
		_ = h.bar.Close()
		h.mu.Unlock()
		fmt.Fprintln(os.Stderr)
	}
	return nil
}
