package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithWorkspaceCreatesAndRemoves(t *testing.T) {
	root := t.TempDir()

	var seen string
	err := WithWorkspace(root, "job", func(dir string) error {
		seen = dir

		info, statErr := os.Stat(dir)
		require.NoError(t, statErr)
		require.True(t, info.IsDir())

		// The directory is writable during the callback.
		return os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("x"), 0644)
	})
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "workspace should be removed after success")
}

func TestWithWorkspaceRemovesOnError(t *testing.T) {
	root := t.TempDir()
	boom := errors.New("render blew up")

	var seen string
	err := WithWorkspace(root, "job", func(dir string) error {
		seen = dir
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "workspace should be removed after failure")
}

func TestWithWorkspaceRemovesOnPanic(t *testing.T) {
	root := t.TempDir()

	var seen string
	func() {
		defer func() {
			require.NotNil(t, recover(), "expected the panic to propagate")
		}()
		_ = WithWorkspace(root, "job", func(dir string) error {
			seen = dir
			panic("mid-render panic")
		})
	}()

	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "workspace should be removed after panic")
}

func TestWithWorkspaceDisjointDirectories(t *testing.T) {
	root := t.TempDir()

	var first, second string
	require.NoError(t, WithWorkspace(root, "job", func(dir string) error {
		first = dir
		return WithWorkspace(root, "job", func(inner string) error {
			second = inner
			return nil
		})
	}))

	assert.NotEqual(t, first, second)
}

func TestWithWorkspaceBadRoot(t *testing.T) {
	// A root that collides with an existing file cannot be created.
	root := t.TempDir()
	blocker := filepath.Join(root, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := WithWorkspace(blocker, "job", func(dir string) error {
		t.Fatal("callback must not run when the workspace cannot be created")
		return nil
	})

	var wsErr *WorkspaceError
	require.ErrorAs(t, err, &wsErr)
}

func TestWithWorkspaceResult(t *testing.T) {
	root := t.TempDir()

	path, err := WithWorkspaceResult(root, "job", func(dir string) (string, error) {
		return filepath.Join(dir, "out.mp4"), nil
	})
	require.NoError(t, err)
	assert.Contains(t, path, "job-")

	_, err = WithWorkspaceResult(root, "job", func(dir string) (string, error) {
		return "", errors.New("nope")
	})
	require.Error(t, err)
}
