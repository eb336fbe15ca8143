package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTP resolves http:// and https:// URIs, for engines that keep pages on a
// device or page server instead of the local filesystem.
type HTTP struct {
	client *http.Client
}

// Ensure HTTP implements Resolver at compile time.
var _ Resolver = (*HTTP)(nil)

// NewHTTP creates an HTTP resolver using the given client.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTP{client: client}
}

// Readable issues a HEAD request and accepts any 2xx answer.
func (h *HTTP) Readable(ctx context.Context, uri string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
	if err != nil {
		return false
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Open implements Resolver.
func (h *HTTP) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()

		return nil, fmt.Errorf("fetch resource failed: %d %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return resp.Body, nil
}
