// Package launcher performs the two-phase launch of the external scanner:
// prepare a launchable request from the engine, then present it through the
// host's modal-result mechanism.
package launcher

import (
	"context"
	"docscan/internal/engine"
	"docscan/internal/host"
	"docscan/pkg/domain"
	"docscan/pkg/logger"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RegistrationKey is the key the result callback is registered under.
const RegistrationKey = "document-scanner"

var (
	// ErrNotRegistered is returned by Present when no presentation mechanism is available.
	ErrNotRegistered = errors.New("launcher not available")
	// ErrNoLaunchable is returned when Prepare yields nothing to present.
	ErrNoLaunchable = errors.New("scanner not initialized")
)

// Options configure how engine configurations are built.
type Options struct {
	// Mode is the engine UI mode; empty means engine.ModeFull.
	Mode engine.Mode
}

// Launcher drives the external engine. The result callback is registered once
// per Launcher, on the first surface it presents on, and reused for every later
// session; registering per session would trip duplicate-registration errors.
type Launcher struct {
	engine engine.Engine
	mode   engine.Mode

	mu        sync.Mutex
	presenter host.Presenter
	surfaceID string
}

// New creates a Launcher for e.
func New(e engine.Engine, opts Options) *Launcher {
	mode := opts.Mode
	if mode == "" {
		mode = engine.ModeFull
	}

	return &Launcher{engine: e, mode: mode}
}

// Config builds the engine configuration for opts. The output format is always
// the engine baseline JPEG.
func (l *Launcher) Config(opts domain.ScanOptions) engine.Config {
	cfg := engine.Config{
		Format: engine.FormatJPEG,
		Mode:   l.mode,
	}
	if opts.MaxPages > 0 {
		cfg.PageLimit = opts.MaxPages
	}

	return cfg
}

// Prepare is the first launch phase. It may block on the engine and must not
// be called from the coordinator's serialized context.
func (l *Launcher) Prepare(ctx context.Context, opts domain.ScanOptions) (engine.Launchable, error) {
	cfg := l.Config(opts)

	ctx, span := otel.Tracer("docscan/launcher").Start(ctx, "Prepare",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("pageLimit", cfg.PageLimit), attribute.String("mode", string(cfg.Mode))))
	defer span.End()

	launchable, err := l.engine.Prepare(ctx, cfg)
	if err == nil && launchable == nil {
		err = ErrNoLaunchable
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("could not prepare scan: %w", err)
	}

	logger.Debug(ctx, "scan prepared", zap.Int("pageLimit", cfg.PageLimit))

	return launchable, nil
}

// Register installs cb on the surface's result registry unless a presenter is
// already registered. It reports the registration error, if any.
func (l *Launcher) Register(r host.ResultRegistry, cb host.ResultFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.presenter != nil {
		return nil
	}

	p, err := r.Register(RegistrationKey, cb)
	if err != nil {
		return fmt.Errorf("could not register result callback: %w", err)
	}
	l.presenter = p
	l.surfaceID = r.ID()

	return nil
}

// Registered reports the surface the callback is registered on.
func (l *Launcher) Registered() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.surfaceID, l.presenter != nil
}

// tagged stamps the result of a launch with the tag it was presented under.
type tagged struct {
	engine.Launchable
	tag string
}

func (t tagged) Run(ctx context.Context) engine.Result {
	res := t.Launchable.Run(ctx)
	res.Launch = t.tag

	return res
}

// Present is the second launch phase. The outcome arrives through the callback
// given to Register, with Result.Launch set to tag.
func (l *Launcher) Present(tag string, launchable engine.Launchable) error {
	l.mu.Lock()
	p := l.presenter
	l.mu.Unlock()

	if p == nil {
		return ErrNotRegistered
	}
	if err := p.Launch(tagged{Launchable: launchable, tag: tag}); err != nil {
		return fmt.Errorf("could not present scanner: %w", err)
	}

	return nil
}
