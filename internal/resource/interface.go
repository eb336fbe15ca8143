// Package resource resolves page resource URIs produced by a scanning engine:
// it probes whether a resource is currently readable and opens it for decoding.
package resource

import (
	"context"
	"io"
)

// Resolver gives access to page resources by URI.
//
//go:generate mockgen -package mockresource -source=interface.go -destination=mock/mockresource.go *
type Resolver interface {
	// Readable reports whether the resource can be opened right now. Probe
	// failures of any kind count as unreadable.
	Readable(ctx context.Context, uri string) bool
	// Open returns the resource content. Callers must close the reader.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}
