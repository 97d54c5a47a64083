package render

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"time"
)

// Runner invokes the external media tool and returns its stdout. The
// orchestrator and prober depend on this interface so tests can record
// invocations without spawning processes.
type Runner interface {
	Run(ctx context.Context, tool string, args []string) (string, error)
}

// Executor runs ffmpeg/ffprobe as child processes. Each invocation is
// bounded by a deadline; on timeout the process is killed and a
// ToolTimeoutError is returned. Retries are the caller's decision.
type Executor struct {
	// Timeout bounds a single invocation. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration
}

func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{Timeout: timeout}
}

var _ Runner = (*Executor)(nil)

// Run spawns tool with args, captures stdout and stderr fully, and blocks
// until the process exits. Non-zero exit becomes ExternalToolError carrying
// the exit code and stderr; a spawn failure becomes ToolLaunchError.
func (e *Executor) Run(ctx context.Context, tool string, args []string) (string, error) {
	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, tool, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		log.Printf("[Exec] %s finished in %s", tool, elapsed.Round(time.Millisecond))
		return stdout.String(), nil
	}

	// CommandContext kills the child on deadline; distinguish that from a
	// genuine tool failure before inspecting the exit code.
	if runCtx.Err() == context.DeadlineExceeded {
		log.Printf("[Exec] %s killed after %s (timeout)", tool, elapsed.Round(time.Second))
		return "", &ToolTimeoutError{Tool: tool, Seconds: elapsed.Seconds()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderrText := stderr.String()
		log.Printf("[Exec] %s exited %d: %s", tool, exitErr.ExitCode(), truncate(stderrText, 512))
		return "", &ExternalToolError{
			Tool:     tool,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderrText,
		}
	}

	// exec.Command failed before the process produced an exit status:
	// executable not found, permission denied, and friends.
	return "", &ToolLaunchError{Tool: tool, Err: err}
}
