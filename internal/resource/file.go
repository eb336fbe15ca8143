package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedScheme is returned for URIs a resolver does not handle.
var ErrUnsupportedScheme = errors.New("unsupported resource scheme")

// File resolves file:// URIs and plain filesystem paths.
type File struct {
	// Root, when set, confines relative paths to this directory.
	Root string
}

// Ensure File implements Resolver at compile time.
var _ Resolver = File{}

func (f File) path(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		if f.Root != "" && !filepath.IsAbs(uri) {
			return filepath.Join(f.Root, uri), nil
		}

		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("could not parse resource URI: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	return filepath.FromSlash(u.Path), nil
}

// Readable opens and immediately closes the file, mirroring a read-permission probe.
func (f File) Readable(_ context.Context, uri string) bool {
	p, err := f.path(uri)
	if err != nil {
		return false
	}

	fh, err := os.Open(p) //nolint: gosec
	if err != nil {
		return false
	}
	defer func() {
		_ = fh.Close()
	}()

	st, err := fh.Stat()

	return err == nil && !st.IsDir()
}

// Open implements Resolver.
func (f File) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	p, err := f.path(uri)
	if err != nil {
		return nil, err
	}

	fh, err := os.Open(p) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not open resource: %w", err)
	}

	return fh, nil
}

// FileURI returns the file:// URI for an absolute path.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
