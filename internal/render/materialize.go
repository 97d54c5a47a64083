package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fetchTimeout = 120 * time.Second

// Materializer resolves asset references into local files inside a job
// workspace. A reference beginning with "/" (or carrying no URL scheme) is
// local and resolved under the static asset root; http(s) references are
// fetched over the network.
type Materializer struct {
	// StaticRoot is the directory local references are resolved against,
	// e.g. "/uploads/audio/a.mp3" → StaticRoot + "/uploads/audio/a.mp3".
	StaticRoot string

	client *http.Client
}

func NewMaterializer(staticRoot string) *Materializer {
	return &Materializer{
		StaticRoot: staticRoot,
		client: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// IsRemote classifies a reference: anything with an http(s) scheme is
// remote, everything else resolves against the static root.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Materialize copies or downloads ref into dest. Idempotent per distinct
// dest path: rewriting the same destination is harmless.
func (m *Materializer) Materialize(ctx context.Context, ref, dest string) error {
	if IsRemote(ref) {
		return m.fetch(ctx, ref, dest)
	}
	return m.copyLocal(ref, dest)
}

func (m *Materializer) copyLocal(ref, dest string) error {
	src := filepath.Join(m.StaticRoot, filepath.FromSlash(strings.TrimPrefix(ref, "/")))

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return &AssetNotFoundError{Ref: ref}
		}
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", ref, err)
	}

	return out.Close()
}

func (m *Materializer) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused before surfacing the status.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &AssetFetchError{URL: url, Status: resp.StatusCode}
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return out.Close()
}
