package render

import (
	"context"
	"strconv"
	"strings"
)

// Prober reads a media file's duration via ffprobe.
type Prober struct {
	Bin    string // ffprobe binary, default "ffprobe"
	Runner Runner
}

func NewProber(bin string, runner Runner) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{Bin: bin, Runner: runner}
}

// Duration returns the file's duration in seconds. Output that cannot be
// parsed as a positive float yields 0, which callers must treat as
// "duration unknown", never as a valid zero-length clip.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	out, err := p.Runner.Run(ctx, p.Bin, args)
	if err != nil {
		return 0, err
	}

	return parseDuration(out), nil
}

// parseDuration extracts a single float from probe output. Anything
// unparseable or non-positive collapses to 0.
func parseDuration(out string) float64 {
	sec, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || sec <= 0 {
		return 0
	}
	return sec
}
