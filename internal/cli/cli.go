// Package cli wires the batch engine to its interactive surface: mode
// selection (TUI, progress bar, verbose logging), collaborator construction,
// and the final printed summary.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/pukpuklouis/video-split/internal/cli/config"
	"github.com/pukpuklouis/video-split/internal/cli/hooks"
	"github.com/pukpuklouis/video-split/internal/cli/ui"
	"github.com/pukpuklouis/video-split/internal/media"
	"github.com/pukpuklouis/video-split/pkg/batch"
)

// Run processes the video files in folder, optionally limited to the given
// 1-based selection, and prints the end-of-run summary.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, folder string, selected []int) error {
	files, err := batch.DiscoverVideos(folder)
	if err != nil {
		return err
	}
	files = batch.SelectIndices(files, selected)
	if len(files) == 0 {
		fmt.Println("No video files found in the specified folder.")
		return nil
	}
	return RunFiles(ctx, cfg, logger, files)
}

// RunFiles processes an explicit file list in the given order.
func RunFiles(ctx context.Context, cfg config.Config, logger *slog.Logger, files []string) error {
	handler := logger.Handler()
	detector := media.NewDetector(handler)
	splitter := media.NewSplitter(handler)

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	if interactive && !cfg.Verbose && !cfg.NoTUI {
		return runWithTUI(ctx, cfg, logger, files, detector, splitter)
	}

	var bar hooks.ProgressBar
	if interactive && !cfg.Verbose {
		bar = newBar(len(files))
	}
	h := hooks.New(logger, cfg.Verbose, nil, bar)
	runner, err := batch.NewRunner(cfg.BatchOptions(handler, h, detector, splitter))
	if err != nil {
		return err
	}
	report, err := runner.RunFiles(ctx, files)
	if err != nil {
		return err
	}
	fmt.Println(batch.SummaryFor(report))
	return nil
}

// runWithTUI drives the batch under the bubbletea view. The engine runs on
// its own goroutine; quitting the view early cancels the run, letting
// in-flight jobs finish without dispatching new ones.
func runWithTUI(ctx context.Context, cfg config.Config, logger *slog.Logger, files []string, detector batch.SceneDetector, splitter batch.SceneSplitter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel()
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	h := hooks.New(logger, false, programAdapter{program: program}, nil)
	runner, err := batch.NewRunner(cfg.BatchOptions(logger.Handler(), h, detector, splitter))
	if err != nil {
		return err
	}

	type runOutcome struct {
		report batch.Report
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		report, runErr := runner.RunFiles(ctx, files)
		done <- runOutcome{report: report, err: runErr}
	}()

	if _, uiErr := program.Run(); uiErr != nil {
		logger.Warn("terminal view failed, waiting for batch to settle", slog.Any("error", uiErr))
	}
	if model.Quitting() {
		cancel()
	}

	outcome := <-done
	if outcome.err != nil {
		return outcome.err
	}
	fmt.Println(batch.SummaryFor(outcome.report))
	return nil
}

// programAdapter satisfies hooks.TUIProgram over *tea.Program, whose Send
// takes the named tea.Msg type rather than a bare interface{}.
type programAdapter struct {
	program *tea.Program
}

func (p programAdapter) Send(msg interface{}) { p.program.Send(msg) }

// barAdapter satisfies hooks.ProgressBar over schollz/progressbar, whose
// Describe has no error return.
type barAdapter struct {
	bar *progressbar.ProgressBar
}

func (b barAdapter) Add(num int) error { return b.bar.Add(num) }

func (b barAdapter) Describe(description string) error {
	b.bar.Describe(description)
	return nil
}

func (b barAdapter) Close() error { return b.bar.Close() }

func newBar(total int) hooks.ProgressBar {
	return barAdapter{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	)}
}
