package resource

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Mux dispatches to a resolver by URI scheme. URIs without a scheme go to the
// "file" entry.
type Mux map[string]Resolver

// Ensure Mux implements Resolver at compile time.
var _ Resolver = Mux{}

// NewMux returns a Mux serving file and http(s) URIs.
func NewMux(file File, web *HTTP) Mux {
	return Mux{
		"file":  file,
		"http":  web,
		"https": web,
	}
}

func (m Mux) route(uri string) (Resolver, error) {
	scheme := "file"
	if i := strings.Index(uri, "://"); i > 0 {
		scheme = strings.ToLower(uri[:i])
	}

	r, ok := m[scheme]
	if !ok || r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	return r, nil
}

// Readable implements Resolver.
func (m Mux) Readable(ctx context.Context, uri string) bool {
	r, err := m.route(uri)
	if err != nil {
		return false
	}

	return r.Readable(ctx, uri)
}

// Open implements Resolver.
func (m Mux) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	r, err := m.route(uri)
	if err != nil {
		return nil, err
	}

	return r.Open(ctx, uri)
}
