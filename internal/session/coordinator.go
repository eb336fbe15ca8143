// Package session implements the scan session coordinator: the state machine
// that admits at most one scan at a time, drives the two-phase launch of the
// external scanner, receives its single result and resolves the caller exactly
// once while keeping the host's chrome state intact.
//
// All session state lives on one serialized execution context (a
// mainloop.Loop). Engine phases and result sanitization run on their own
// goroutines and post their outcome back to the loop, so the slot never needs
// a lock and concurrent admissions are rejected instead of queued.
package session

import (
	"context"
	"docscan/internal/chrome"
	"docscan/internal/engine"
	"docscan/internal/host"
	"docscan/internal/launcher"
	"docscan/internal/mainloop"
	"docscan/pkg/domain"
	"docscan/pkg/logger"
	"docscan/pkg/metrics"
	"docscan/pkg/serrors"
	"errors"
	"time"

	"go.uber.org/zap"
)

var errEngineFailed = errors.New("engine reported a failure")

// Options configure platform capability checks.
type Options struct {
	// PlatformVersion is the host platform version.
	PlatformVersion int
	// MinPlatformVersion is the lowest platform version able to run the scanner.
	MinPlatformVersion int
	// QueueSize is the task buffer of the coordinator loop.
	QueueSize int
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Surfaces  host.Provider
	Launcher  *launcher.Launcher
	Sanitizer Sanitizer
	Guard     chrome.Guard
	// Metrics is optional.
	Metrics *metrics.Sessions
}

// Coordinator owns the session slot. Construct one per host application and
// pass it to call sites explicitly.
type Coordinator struct {
	deps    Deps
	options Options
	loop    *mainloop.Loop

	// slot is only accessed on loop.
	slot *slot
}

// New creates a Coordinator. Run must be called before sessions can start.
func New(deps Deps, opts Options) *Coordinator {
	if deps.Guard == nil {
		deps.Guard = chrome.New(false)
	}

	return &Coordinator{
		deps:    deps,
		options: opts,
		loop:    mainloop.New(opts.QueueSize),
	}
}

// Run executes the coordinator loop until ctx is canceled. A session still in
// flight at that point is rejected with serrors.ErrUnavailable so its handle
// fires.
func (c *Coordinator) Run(ctx context.Context) {
	c.loop.Run(ctx)

	// the loop has stopped, nothing else touches the slot anymore
	if s := c.slot; s != nil {
		logger.Warn(s.ctx, "coordinator stopped with a session in flight")
		c.complete(s.id, domain.ScanResult{}, serrors.With(serrors.ErrUnavailable, "scanner shutting down"))
	}
}

// Start admits a new session. Precondition failures are returned synchronously
// and leave all state untouched. Once admitted, the outcome is delivered
// through the returned Pending.
//
// ctx carries logging fields. A ctx that is already done when admission runs
// rejects the request with its error; once admitted, the session runs until
// the engine reports, regardless of ctx.
func (c *Coordinator) Start(ctx context.Context, opts domain.ScanOptions) (*Pending, error) {
	opts = opts.Normalize()

	// admit never blocks, so waiting for it regardless of ctx is safe and
	// keeps an admitted session from losing its caller
	var (
		p   *Pending
		err error
	)
	if doErr := c.loop.Do(func() { p, err = c.admit(ctx, opts) }); doErr != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, doErr, "scanner not running")
	}
	if err != nil {
		if reason := Reason(err); reason != "" {
			c.deps.Metrics.Rejected(ctx, reason)
		}
		logger.Info(ctx, "scan rejected", zap.Error(err))

		return nil, err
	}

	return p, nil
}

// Scan starts a session and waits for its outcome.
func (c *Coordinator) Scan(ctx context.Context, opts domain.ScanOptions) (domain.ScanResult, error) {
	p, err := c.Start(ctx, opts)
	if err != nil {
		return domain.ScanResult{}, err
	}

	return p.Wait(ctx)
}

// Current returns the session occupying the slot, or nil.
func (c *Coordinator) Current(ctx context.Context) (*domain.SessionInfo, error) {
	var info *domain.SessionInfo
	if err := c.loop.Call(ctx, func() {
		if c.slot != nil {
			i := c.slot.info()
			info = &i
		}
	}); err != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "scanner not running")
	}

	return info, nil
}

// admit runs on the loop.
func (c *Coordinator) admit(ctx context.Context, opts domain.ScanOptions) (*Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint: wrapcheck
	}

	surface := c.deps.Surfaces.Current()
	if surface == nil {
		return nil, serrors.With(ErrNoSurface, "surface not available")
	}
	registry, ok := surface.(host.ResultRegistry)
	if !ok {
		return nil, serrors.With(ErrInvalidSurface, "surface %q cannot present modal results", surface.ID())
	}
	if c.slot != nil {
		return nil, serrors.With(ErrInProgress, "scan already in progress")
	}
	if c.options.PlatformVersion < c.options.MinPlatformVersion {
		return nil, serrors.With(ErrUnsupportedPlatform, "platform version %d or higher required, got %d",
			c.options.MinPlatformVersion, c.options.PlatformVersion)
	}

	id := domain.NewSessionID()
	sctx := logger.WithFields(context.WithoutCancel(ctx),
		zap.Stringer("sessionID", id),
		zap.String("surface", surface.ID()),
		zap.String("responseType", string(opts.ResponseType)))

	s := &slot{
		id:        id,
		pending:   newPending(id),
		options:   opts,
		surface:   host.Borrow(surface),
		surfaceID: surface.ID(),
		ctx:       sctx,
		startedAt: time.Now(),
		phase:     phaseLaunching,
	}
	if op, ok := domain.OperatorFromContext(ctx); ok {
		s.operator = &op
	}
	c.slot = s
	c.deps.Metrics.Started(sctx)
	logger.Info(sctx, "scan session started", zap.Int("maxPages", opts.MaxPages))

	c.deps.Guard.Save(surface)

	if err := c.deps.Launcher.Register(registry, c.onResult); err != nil {
		c.complete(id, domain.ScanResult{}, serrors.Wrap(ErrLauncher, err, "launcher not available"))

		return s.pending, nil
	}

	go func() {
		launchable, err := c.deps.Launcher.Prepare(sctx, opts)
		c.post(sctx, func() { c.afterPrepare(id, launchable, err) })
	}()

	return s.pending, nil
}

// afterPrepare runs on the loop once the engine answered the prepare phase.
func (c *Coordinator) afterPrepare(id domain.SessionID, launchable engine.Launchable, err error) {
	s := c.active(id)
	if s == nil {
		return
	}
	if err != nil {
		c.complete(id, domain.ScanResult{}, serrors.Wrap(ErrScannerInit, err, "scanner not initialized"))

		return
	}

	s.phase = phasePresenting
	if err := c.deps.Launcher.Present(id.String(), launchable); err != nil {
		c.complete(id, domain.ScanResult{}, serrors.Wrap(ErrLauncher, err, "launcher not available"))

		return
	}
	logger.Debug(s.ctx, "scanner presented")
}

// onResult is the registered result callback. It may be called from any
// goroutine and any number of times; only the first result of a presenting
// session is acted upon.
func (c *Coordinator) onResult(res engine.Result) {
	c.post(context.Background(), func() { c.handleResult(res) })
}

func (c *Coordinator) handleResult(res engine.Result) {
	s := c.slot
	if s == nil {
		logger.Debug(context.Background(), "ignoring scan result without a session", zap.Stringer("code", res.Code))

		return
	}
	if res.Launch != "" && res.Launch != s.id.String() {
		logger.Debug(s.ctx, "ignoring scan result of another session", zap.String("launch", res.Launch))

		return
	}
	if s.phase != phasePresenting {
		logger.Debug(s.ctx, "ignoring duplicate scan result", zap.Stringer("code", res.Code))

		return
	}

	switch res.Code {
	case engine.ResultOK:
		s.phase = phaseMaterializing
		c.materialize(s, res.Pages)
	case engine.ResultFailed:
		cause := res.Err
		if cause == nil {
			cause = errEngineFailed
		}
		c.complete(s.id, domain.ScanResult{}, serrors.Wrap(ErrDocumentScan, cause, "document scan failed"))
	default:
		// canceled, and anything the engine should not have sent
		c.complete(s.id, domain.CancelResult(), nil)
	}
}

// materialize sanitizes pages off the loop and posts the outcome back.
func (c *Coordinator) materialize(s *slot, pages []engine.Page) {
	id, ctx, opts := s.id, s.ctx, s.options

	go func() {
		start := time.Now()
		images, err := c.deps.Sanitizer.Sanitize(ctx, pages, opts)
		c.deps.Metrics.Sanitized(ctx, string(opts.ResponseType), time.Since(start))

		c.post(ctx, func() {
			if err != nil {
				c.complete(id, domain.ScanResult{}, serrors.Wrap(ErrDocumentScan, err, "could not process scanned pages"))

				return
			}
			c.complete(id, domain.SuccessResult(images), nil)
		})
	}()
}

// complete is the single terminal step. It runs on the loop (or after the loop
// stopped) and is a no-op unless id owns the slot: chrome is restored, the slot
// emptied, then the handle fires.
func (c *Coordinator) complete(id domain.SessionID, res domain.ScanResult, err error) {
	s := c.active(id)
	if s == nil {
		return
	}

	c.deps.Guard.Restore()
	s.surface.Release()
	c.slot = nil

	s.pending.resolve(res, err)

	outcome := string(res.Status)
	if err != nil {
		outcome = Reason(err)
		logger.Warn(s.ctx, "scan session failed", zap.Error(err), zap.Stringer("category", CategoryOf(err)))
	} else {
		logger.Info(s.ctx, "scan session finished",
			zap.String("status", string(res.Status)),
			zap.Int("images", len(res.Images)))
	}
	c.deps.Metrics.Completed(s.ctx, outcome, time.Since(s.startedAt))
}

func (c *Coordinator) active(id domain.SessionID) *slot {
	if c.slot == nil || c.slot.id != id {
		return nil
	}

	return c.slot
}

func (c *Coordinator) post(ctx context.Context, fn func()) {
	if err := c.loop.Post(fn); err != nil {
		logger.Warn(ctx, "dropping session event", zap.Error(err))
	}
}
