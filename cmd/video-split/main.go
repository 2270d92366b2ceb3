package main

// main is the entry point for the video-split CLI. Command construction,
// configuration loading, and signal handling live in root.go; Execute prints
// any error and sets a non-zero exit code through cobra.
func main() {
	Execute()
}
