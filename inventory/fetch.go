package inventory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// Fetcher retrieves the source map behind a sourceMappingURL.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FileFetcher resolves file:// URLs and relative references against Dir
// and http(s) URLs through Client.
type FileFetcher struct {
	Dir    string
	Client *http.Client
}

// NewFetcher returns a FileFetcher rooted at dir using http.DefaultClient.
func NewFetcher(dir string) *FileFetcher {
	return &FileFetcher{Dir: dir, Client: http.DefaultClient}
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid source map url %q: %w", ref, err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, u.String())
	case "file":
		return readFile(u.Path)
	case "":
		path := u.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(f.Dir, filepath.FromSlash(path))
		}
		return readFile(path)
	default:
		return nil, fmt.Errorf("unsupported source map url scheme %q", u.Scheme)
	}
}

func (f *FileFetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source map: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch source map %s: status %s", ref, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read source map: %w", err)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source map: %w", err)
	}
	return data, nil
}
