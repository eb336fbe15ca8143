// Package directory provides an engine.Engine that picks up pages a scanner
// dropped into an inbox directory (scan-to-folder). Every run claims the
// images currently in the inbox by moving them into the page store.
package directory

import (
	"context"
	"docscan/internal/engine"
	"docscan/internal/resource"
	"docscan/pkg/logger"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Extensions lists the file extensions picked up from the inbox.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".heic", ".heif", ".pdf"} //nolint: gochecknoglobals

// Options configure the directory engine.
type Options struct {
	// Inbox is the directory the scanner writes to.
	Inbox string
	// PageStore is the directory claimed pages are moved to.
	PageStore string
}

// Engine claims pages from an inbox directory.
type Engine struct {
	opts Options
}

// Ensure Engine conforms to the engine.Engine interface at compile time.
var _ engine.Engine = (*Engine)(nil)

// New creates the page store when missing and returns an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Inbox == "" {
		return nil, errors.New("inbox directory is required")
	}
	if opts.PageStore == "" {
		opts.PageStore = filepath.Join(opts.Inbox, ".claimed")
	}
	if err := os.MkdirAll(opts.PageStore, 0o750); err != nil {
		return nil, fmt.Errorf("could not create page store: %w", err)
	}

	return &Engine{opts: opts}, nil
}

// Prepare checks that the inbox is a readable directory.
func (e *Engine) Prepare(_ context.Context, cfg engine.Config) (engine.Launchable, error) {
	fi, err := os.Stat(e.opts.Inbox)
	if err != nil {
		return nil, fmt.Errorf("could not open inbox: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("inbox %s is not a directory", e.opts.Inbox)
	}

	return &claim{engine: e, cfg: cfg}, nil
}

type claim struct {
	engine *Engine
	cfg    engine.Config
}

// Run moves up to PageLimit images, oldest name first, into the page store.
// An empty inbox is reported as a cancel.
func (c *claim) Run(ctx context.Context) engine.Result {
	if ctx.Err() != nil {
		return engine.Canceled()
	}

	names, err := c.engine.pending()
	if err != nil {
		return engine.Failed(err)
	}
	if c.cfg.PageLimit > 0 && len(names) > c.cfg.PageLimit {
		names = names[:c.cfg.PageLimit]
	}
	if len(names) == 0 {
		logger.Debug(ctx, "inbox is empty", zap.String("inbox", c.engine.opts.Inbox))

		return engine.Canceled()
	}

	prefix := uuid.NewString()
	pages := make([]engine.Page, 0, len(names))
	for i, name := range names {
		dst := filepath.Join(c.engine.opts.PageStore, fmt.Sprintf("%s-%03d%s", prefix, i+1, filepath.Ext(name)))
		if err := os.Rename(filepath.Join(c.engine.opts.Inbox, name), dst); err != nil {
			return engine.Failed(fmt.Errorf("could not claim page %s: %w", name, err))
		}
		pages = append(pages, engine.Page{URI: resource.FileURI(dst)})
	}

	return engine.Completed(pages...)
}

func (e *Engine) pending() ([]string, error) {
	entries, err := os.ReadDir(e.opts.Inbox)
	if err != nil {
		return nil, fmt.Errorf("could not list inbox: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if slices.Contains(Extensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			names = append(names, entry.Name())
		}
	}
	// ReadDir already sorts by filename

	return names, nil
}
