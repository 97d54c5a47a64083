package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/storyreel/storyreel/internal/models"
)

// Output / rendering constants — 1080x1920 portrait at 30fps
const (
	outputWidth  = 1080
	outputHeight = 1920
	videoFPS     = 30

	// Synthesized background when a clip has no image.
	backgroundColor = "black"
)

// Transition is the per-clip scene-to-scene transition metadata. Only "none"
// and "cut" render today; timed types are validated and recorded, then
// rendered as straight concatenation.
type Transition struct {
	Type        models.TransitionType
	DurationSec float64
}

// Validate checks the type is a known enum member and timed types carry a
// positive duration.
func (t Transition) Validate() error {
	if !models.KnownTransition(t.Type) {
		return fmt.Errorf("unknown transition type %q", t.Type)
	}
	switch t.Type {
	case models.TransitionFade, models.TransitionDissolve:
		if t.DurationSec <= 0 {
			return fmt.Errorf("transition %q requires a positive duration, got %v", t.Type, t.DurationSec)
		}
	}
	return nil
}

// StillClipSpec builds the single-clip mode: a still image (or a synthesized
// solid background) looped for the clip's duration with the narration track
// muxed in.
type StillClipSpec struct {
	// ImagePath is the materialized still. Empty means synthesize a solid
	// color background at the output resolution.
	ImagePath string

	// AudioPath is the materialized narration track.
	AudioPath string

	// DurationSec is the exact target duration. Must be positive and finite;
	// the probe's 0 ("unknown") must be resolved by the caller first.
	DurationSec float64

	// ClipID tags precondition errors with the offending clip.
	ClipID uuid.UUID

	OutputPath string
}

// Build returns the ffmpeg argument list. A non-positive or non-finite
// duration is a precondition failure: the command is never built with
// duration 0.
func (s StillClipSpec) Build() ([]string, error) {
	if s.DurationSec <= 0 || math.IsInf(s.DurationSec, 0) || math.IsNaN(s.DurationSec) {
		return nil, &IndeterminateDurationError{ClipID: s.ClipID}
	}

	dur := fmt.Sprintf("%.3f", s.DurationSec)

	var args []string
	if s.ImagePath != "" {
		args = append(args,
			"-loop", "1",
			"-i", s.ImagePath,
		)
	} else {
		// No image: solid background at the output resolution.
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", backgroundColor, outputWidth, outputHeight, videoFPS),
		)
	}

	args = append(args,
		"-i", s.AudioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", outputWidth, outputHeight, outputWidth, outputHeight),
		"-t", dur, // trim/pad to exactly the target duration
		"-y",
		s.OutputPath,
	)

	return args, nil
}

// ConcatSpec builds the multi-clip mode: stream-copy concatenation of
// already-rendered files, driven by a manifest written into the workspace.
type ConcatSpec struct {
	// Workspace receives the manifest file.
	Workspace string

	// InputPaths are the materialized files in final render order.
	InputPaths []string

	OutputPath string
}

// Build writes the concat manifest and returns the ffmpeg argument list. An
// empty input list is a precondition failure raised before anything touches
// the filesystem.
func (s ConcatSpec) Build() ([]string, error) {
	if len(s.InputPaths) == 0 {
		return nil, &EmptyTimelineError{}
	}

	listPath := filepath.Join(s.Workspace, "concat_list.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create concat list: %w", err)
	}

	for _, path := range s.InputPaths {
		// ffmpeg's concat demuxer parses single-quoted paths; quotes inside
		// the path are closed, escaped, reopened.
		fmt.Fprintf(f, "file '%s'\n", escapeConcatPath(path))
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write concat list: %w", err)
	}

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy", // Copy without re-encoding
		"-y",
		s.OutputPath,
	}

	return args, nil
}

// escapeConcatPath escapes single quotes for the concat demuxer's
// single-quoted list syntax.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// MusicMixSpec loops background music underneath a video's existing
// narration. The music is held at low volume so narration stays dominant and
// ends with the video.
type MusicMixSpec struct {
	VideoPath  string
	MusicPath  string
	OutputPath string
}

// Build returns the ffmpeg argument list for the mix.
func (s MusicMixSpec) Build() []string {
	// [0:a] narration at full volume, [1:a] music at 12%; amix ends when the
	// video's audio ends, with a short fade-out.
	filterComplex := "[0:a]volume=1.0[narration];[1:a]volume=0.12[music];[narration][music]amix=inputs=2:duration=first:dropout_transition=3[aout]"

	return []string{
		"-i", s.VideoPath,
		"-stream_loop", "-1",
		"-i", s.MusicPath,
		"-filter_complex", filterComplex,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-y",
		s.OutputPath,
	}
}
