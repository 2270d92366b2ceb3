package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// videoExtensions is the fixed allow-list of media container extensions,
// lowercase with leading dot.
var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// IsVideoFile reports whether path carries an allow-listed video extension.
// The check is case-insensitive.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// DiscoverVideos lists the video files directly inside folder, sorted
// lexicographically by name so repeated runs on an unchanged directory
// produce the same submission order. Subdirectories are not descended into.
func DiscoverVideos(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, folder)
		}
		return nil, fmt.Errorf("reading folder %s: %w", folder, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if IsVideoFile(e.Name()) {
			files = append(files, filepath.Join(folder, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SelectIndices filters files to the given 1-based positions, preserving
// order. Out-of-range indices are silently dropped. A nil or empty selection
// returns files unchanged.
func SelectIndices(files []string, indices []int) []string {
	if len(indices) == 0 {
		return files
	}
	selected := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 1 && idx <= len(files) {
			selected = append(selected, files[idx-1])
		}
	}
	return selected
}
