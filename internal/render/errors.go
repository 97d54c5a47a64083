package render

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed failures raised by the pipeline. Handlers match these with errors.As
// to pick HTTP status codes; everything else maps to a generic 500.

// AssetNotFoundError means a local asset reference did not resolve to a file
// under the static root.
type AssetNotFoundError struct {
	Ref string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("asset not found: %s", e.Ref)
}

// AssetFetchError means a remote asset returned a non-2xx response.
type AssetFetchError struct {
	URL    string
	Status int
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("fetching %s failed with status %d", e.URL, e.Status)
}

// IndeterminateDurationError means a clip has no explicit duration and the
// probe could not determine one. The command builder refuses to build a
// zero-length clip.
type IndeterminateDurationError struct {
	ClipID uuid.UUID
}

func (e *IndeterminateDurationError) Error() string {
	return fmt.Sprintf("clip %s: duration unknown (no explicit duration, probe failed)", e.ClipID)
}

// EmptyTimelineError means a concat export was requested with zero clips.
type EmptyTimelineError struct{}

func (e *EmptyTimelineError) Error() string {
	return "timeline has no clips to export"
}

// MissingMediaError means a timeline clip references a media row that does
// not exist. Raised before any process is spawned.
type MissingMediaError struct {
	MediaID uuid.UUID
}

func (e *MissingMediaError) Error() string {
	return fmt.Sprintf("timeline references missing media %s", e.MediaID)
}

// ToolLaunchError means the media tool could not be started at all
// (executable missing, permissions). Distinct from a tool that ran and
// exited non-zero.
type ToolLaunchError struct {
	Tool string
	Err  error
}

func (e *ToolLaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Tool, e.Err)
}

func (e *ToolLaunchError) Unwrap() error { return e.Err }

// ExternalToolError means the media tool ran and exited non-zero. Stderr is
// kept in full for the immediate caller; logs truncate it.
type ExternalToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, truncate(e.Stderr, 512))
}

// ToolTimeoutError means the tool exceeded its deadline and was killed.
type ToolTimeoutError struct {
	Tool    string
	Seconds float64
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %.0fs", e.Tool, e.Seconds)
}

// WorkspaceError means the job workspace could not be created. Removal
// failures are logged, never raised.
type WorkspaceError struct {
	Err error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("failed to create workspace: %v", e.Err)
}

func (e *WorkspaceError) Unwrap() error { return e.Err }

// Stage identifies where in the export state machine a job was when it
// failed.
type Stage string

const (
	StageFetching      Stage = "fetching"
	StageMaterializing Stage = "materializing"
	StageProbing       Stage = "probing"
	StageBuilding      Stage = "building"
	StageExecuting     Stage = "executing"
	StageDelivering    Stage = "delivering"
)

// ExportError wraps any failure with the stage the orchestrator was in.
type ExportError struct {
	Stage Stage
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed while %s: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// truncate limits a string to maxLen characters for log output
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
