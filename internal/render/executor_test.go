package render

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunCapturesStdout(t *testing.T) {
	exec := NewExecutor(0)

	out, err := exec.Run(context.Background(), "sh", []string{"-c", "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecutorRunNonZeroExit(t *testing.T) {
	exec := NewExecutor(0)

	_, err := exec.Run(context.Background(), "sh", []string{"-c", "echo 'No such filter' >&2; exit 3"})

	var toolErr *ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "sh", toolErr.Tool)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Contains(t, toolErr.Stderr, "No such filter")
	assert.True(t, strings.Contains(err.Error(), "exited with code 3"))
}

func TestExecutorRunLaunchFailure(t *testing.T) {
	exec := NewExecutor(0)

	_, err := exec.Run(context.Background(), "/nonexistent/ffmpeg-binary", nil)

	var launchErr *ToolLaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "/nonexistent/ffmpeg-binary", launchErr.Tool)
}

func TestExecutorRunTimeout(t *testing.T) {
	exec := NewExecutor(100 * time.Millisecond)

	_, err := exec.Run(context.Background(), "sleep", []string{"5"})

	var timeoutErr *ToolTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "sleep", timeoutErr.Tool)
}

func TestExternalToolErrorTruncatesStderrInMessage(t *testing.T) {
	toolErr := &ExternalToolError{
		Tool:     "ffmpeg",
		ExitCode: 1,
		Stderr:   strings.Repeat("x", 2000),
	}

	// The full stderr stays on the struct; only the message truncates.
	assert.Len(t, toolErr.Stderr, 2000)
	assert.Less(t, len(toolErr.Error()), 700)
	assert.Contains(t, toolErr.Error(), "...")
}
