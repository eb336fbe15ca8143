// Package sanitizer turns the raw page outputs of a scan into the caller-facing
// image list according to the session's response type.
package sanitizer

import (
	"context"
	"docscan/internal/engine"
	"docscan/internal/resource"
	"docscan/pkg/domain"
	"docscan/pkg/logger"
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configure the sanitizer.
type Options struct {
	// Workers bounds how many pages are decoded concurrently in base64 mode.
	// Non-positive means runtime.NumCPU().
	Workers int
}

// Sanitizer converts page outputs into strings. It is safe for concurrent use.
type Sanitizer struct {
	resolver resource.Resolver
	workers  int
}

// New creates a Sanitizer reading page resources through resolver.
func New(resolver resource.Resolver, opts Options) *Sanitizer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Sanitizer{resolver: resolver, workers: workers}
}

// Sanitize returns the images for pages in page order.
//
// In uri mode a page is kept only if its resource is readable right now;
// unreadable pages are dropped without error. In base64 mode every page is
// decoded and re-encoded as JPEG at opts.ImageQuality, and the first page that
// fails aborts the whole call: no partial list is ever returned. Blank strings
// are removed in both modes.
func (s *Sanitizer) Sanitize(ctx context.Context, pages []engine.Page, opts domain.ScanOptions) ([]string, error) {
	ctx, span := otel.Tracer("docscan/sanitizer").Start(ctx, "Sanitize",
		trace.WithAttributes(
			attribute.String("responseType", string(opts.ResponseType)),
			attribute.Int("pages", len(pages)),
		))
	defer span.End()

	var (
		images []string
		err    error
	)
	if opts.ResponseType == domain.ResponseTypeBase64 {
		images, err = s.encodeAll(ctx, pages, opts.ImageQuality)
	} else {
		images = s.readableURIs(ctx, pages)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	return images, nil
}

func (s *Sanitizer) readableURIs(ctx context.Context, pages []engine.Page) []string {
	images := make([]string, 0, len(pages))
	for i, p := range pages {
		uri := strings.TrimSpace(p.URI)
		if uri == "" {
			continue
		}
		if !s.resolver.Readable(ctx, uri) {
			logger.Warn(ctx, "dropping unreadable page", zap.Int("page", i), zap.String("uri", uri))

			continue
		}
		images = append(images, uri)
	}

	return images
}

func (s *Sanitizer) encodeAll(ctx context.Context, pages []engine.Page, quality int) ([]string, error) {
	encoded := make([]string, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range pages {
		uri := strings.TrimSpace(p.URI)
		if uri == "" {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint: wrapcheck
			}

			out, err := s.encodePage(gctx, uri, quality)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			encoded[i] = out

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("could not encode pages: %w", err)
	}

	images := make([]string, 0, len(encoded))
	for _, e := range encoded {
		if strings.TrimSpace(e) != "" {
			images = append(images, e)
		}
	}

	return images, nil
}

func (s *Sanitizer) encodePage(ctx context.Context, uri string, quality int) (string, error) {
	rc, err := s.resolver.Open(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("could not open page: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("could not read page: %w", err)
	}

	img, err := decodePage(data)
	if err != nil {
		return "", err
	}

	return encodeJPEGBase64(img, quality)
}
