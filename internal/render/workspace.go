package render

import (
	"log"
	"os"
)

// WithWorkspace creates a uniquely named directory under tempRoot, hands it
// to fn, and removes it recursively no matter how fn returns. Two concurrent
// jobs always get disjoint directories; a workspace is never reused.
//
// Removal failures are logged and swallowed so they never mask fn's result.
func WithWorkspace(tempRoot, prefix string, fn func(dir string) error) error {
	if err := os.MkdirAll(tempRoot, 0755); err != nil {
		return &WorkspaceError{Err: err}
	}

	dir, err := os.MkdirTemp(tempRoot, prefix+"-")
	if err != nil {
		return &WorkspaceError{Err: err}
	}

	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Printf("[Workspace] failed to remove %s: %v", dir, rmErr)
		}
	}()

	return fn(dir)
}

// WithWorkspaceResult is WithWorkspace for callers that produce a value. The
// cleanup guarantee is identical; a panic inside fn still removes the
// directory before propagating.
func WithWorkspaceResult[T any](tempRoot, prefix string, fn func(dir string) (T, error)) (T, error) {
	var zero T
	var result T

	err := WithWorkspace(tempRoot, prefix, func(dir string) error {
		var fnErr error
		result, fnErr = fn(dir)
		return fnErr
	})
	if err != nil {
		return zero, err
	}
	return result, nil
}
