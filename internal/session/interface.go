package session

import (
	"context"
	"docscan/internal/engine"
	"docscan/pkg/domain"
)

// Sanitizer materialises page outputs into caller-facing images.
type Sanitizer interface {
	Sanitize(ctx context.Context, pages []engine.Page, opts domain.ScanOptions) ([]string, error)
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(ctx context.Context, pages []engine.Page, opts domain.ScanOptions) ([]string, error)

// Sanitize implements Sanitizer.
func (f SanitizerFunc) Sanitize(ctx context.Context, pages []engine.Page, opts domain.ScanOptions) ([]string, error) {
	return f(ctx, pages, opts)
}
