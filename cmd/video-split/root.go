package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pukpuklouis/video-split/internal/cli"
	"github.com/pukpuklouis/video-split/internal/cli/config"
)

var (
	// Set at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile  string
	inputDir string
	selected []int
)

var rootCmd = &cobra.Command{
	Use:   "video-split -i <folder>",
	Short: "Batch-detects scene boundaries in video files and splits them.",
	Long: `video-split scans a folder for video files (.mp4 .avi .mov .mkv),
detects scene boundaries in each one with ffmpeg, and writes every scene as
its own file. Files are processed in parallel with live per-file progress,
and a summary (optionally persisted as JSON) is produced at the end.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// In-flight ffmpeg invocations finish on interrupt; only new
		// dispatches stop.
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, logger, err := config.LoadAndValidate(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		return cli.Run(ctx, cfg, logger, inputDir, selected)
	},
}

// Execute runs the root command. Cobra prints the error and exits non-zero
// when RunE fails.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default searches . and $HOME/.config/video-split)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) logging output (disables the TUI)")

	rootCmd.Flags().StringVarP(&inputDir, "input", "i", "", "Required. Folder containing video files.")
	_ = rootCmd.MarkFlagRequired("input")
	rootCmd.Flags().IntSliceVar(&selected, "select", nil, "1-based file positions to process (default all)")

	rootCmd.Flags().StringP("output", "o", config.DefaultOutput, "Base output directory for split scenes")
	rootCmd.Flags().Bool("subdirs", false, "Create one subdirectory per input file")
	rootCmd.Flags().Bool("save-stats", false, "Write the aggregated JSON report after the run")
	rootCmd.Flags().String("stats-file", config.DefaultStatsFile, "Report destination when --save-stats is set")

	rootCmd.Flags().Int("concurrency", 0, "Number of parallel workers (0 = min(CPU cores, 4))")
	rootCmd.Flags().Duration("timeout", 0, "Per-file deadline, e.g. 10m (0 = none)")

	rootCmd.Flags().Float64("threshold", config.DefaultThreshold, "Scene detection threshold (0-100)")
	rootCmd.Flags().Float64("min-scene-len", config.DefaultMinSceneLen, "Minimum scene length in seconds")
	rootCmd.Flags().Bool("luma-only", false, "Detect on the luma plane only")

	rootCmd.Flags().Bool("no-tui", false, "Disable the interactive progress view even in a TTY")

	rootCmd.AddCommand(menuCmd)
}
