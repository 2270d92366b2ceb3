package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pukpuklouis/video-split/internal/cli"
	"github.com/pukpuklouis/video-split/internal/cli/config"
	"github.com/pukpuklouis/video-split/pkg/batch"
)

// menuCmd is the interactive control panel, the tool's original front end.
// It loops over a numbered menu until the user exits.
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive control panel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, logger, err := config.LoadAndValidate(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		m := &menu{
			ctx:    ctx,
			cfg:    cfg,
			logger: logger,
			reader: bufio.NewReader(os.Stdin),
		}
		m.loop()
		return nil
	},
}

type menu struct {
	ctx    context.Context
	cfg    config.Config
	logger *slog.Logger
	reader *bufio.Reader
}

func (m *menu) loop() {
	for {
		fmt.Println("\n=== Video Split Control Panel ===")
		fmt.Println("1. Process a single video file")
		fmt.Println("2. Select specific files from a folder")
		fmt.Println("3. Batch process all files in a folder")
		fmt.Println("4. View configuration")
		fmt.Println("5. Preview current settings")
		fmt.Println("6. Exit")

		choice := m.prompt("\nEnter your choice (1-6): ")
		if m.ctx.Err() != nil {
			return
		}

		switch choice {
		case "1":
			m.processSingleFile()
		case "2":
			m.processSelectedFiles()
		case "3":
			m.processFolder()
		case "4", "5":
			m.showConfig()
		case "6":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
		}
	}
}

func (m *menu) prompt(label string) string {
	fmt.Print(label)
	line, err := m.reader.ReadString('\n')
	if err != nil {
		return "6" // EOF on stdin exits the menu
	}
	return strings.TrimSpace(line)
}

func (m *menu) processSingleFile() {
	path := m.prompt("Video file path: ")
	if path == "" {
		return
	}
	if !batch.IsVideoFile(path) {
		fmt.Println("Unsupported format. Expected one of: .mp4 .avi .mov .mkv")
		return
	}
	if err := cli.RunFiles(m.ctx, m.cfg, m.logger, []string{path}); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (m *menu) processSelectedFiles() {
	folder := m.prompt("Folder containing videos: ")
	if folder == "" {
		return
	}
	files, err := batch.DiscoverVideos(folder)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(files) == 0 {
		fmt.Println("No video files found in the specified folder.")
		return
	}

	fmt.Println("\nAvailable video files:")
	for i, f := range files {
		fmt.Printf("%d. %s\n", i+1, baseName(f))
	}

	fmt.Println("\nEnter the numbers of files to process (comma-separated, e.g. 1,3,4)")
	fmt.Println("Or enter 'all' to process all files")
	selection := strings.ToLower(m.prompt("Selection: "))

	var indices []int
	if selection != "all" {
		indices, err = parseIndices(selection)
		if err != nil {
			fmt.Println("Invalid selection format. Please use comma-separated numbers.")
			return
		}
	}
	if err := cli.Run(m.ctx, m.cfg, m.logger, folder, indices); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (m *menu) processFolder() {
	folder := m.prompt("Folder containing videos: ")
	if folder == "" {
		return
	}
	if err := cli.Run(m.ctx, m.cfg, m.logger, folder, nil); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (m *menu) showConfig() {
	fmt.Println("\nCurrent configuration:")
	data, err := yaml.Marshal(m.cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Print(string(data))
	if m.cfg.ConfigFilePath != "" {
		fmt.Printf("\nLoaded from %s; edit that file to change settings.\n", m.cfg.ConfigFilePath)
	} else {
		fmt.Println("\nNo config file loaded; defaults are in effect.")
	}
	m.prompt("Press Enter to continue...")
}

// parseIndices parses "1,3,4" into 1-based positions. Out-of-range values
// are not an error here; the selection filter drops them silently.
func parseIndices(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		indices = append(indices, n)
	}
	return indices, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
