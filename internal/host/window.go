package host

import (
	"context"
	"docscan/internal/engine"
	"docscan/pkg/logger"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Window is an in-process ResultRegistry. Launching runs the engine's flow on
// its own goroutine and reports the outcome through the registered callback,
// the way a platform activity delivers a modal result.
type Window struct {
	id       string
	attached atomic.Bool
	chrome   atomic.Bool

	mu        sync.Mutex
	callbacks map[string]ResultFunc
	ctx       context.Context //nolint: containedctx
}

// Ensure Window is a full ResultRegistry at compile time.
var _ ResultRegistry = (*Window)(nil)

// NewWindow creates an attached window. chromeVisible is the initial chrome flag.
// ctx is handed to every launched engine flow.
func NewWindow(ctx context.Context, id string, chromeVisible bool) *Window {
	w := &Window{
		id:        id,
		callbacks: map[string]ResultFunc{},
		ctx:       ctx,
	}
	w.attached.Store(true)
	w.chrome.Store(chromeVisible)

	return w
}

func (w *Window) ID() string { return w.id }

func (w *Window) Attached() bool { return w.attached.Load() }

// Attach marks the window as owned by the host again.
func (w *Window) Attach() { w.attached.Store(true) }

// Detach marks the window as gone. Borrowed references stop resolving.
func (w *Window) Detach() { w.attached.Store(false) }

func (w *Window) ChromeVisible() bool { return w.chrome.Load() }

func (w *Window) SetChromeVisible(visible bool) { w.chrome.Store(visible) }

// Register implements ResultRegistry.
func (w *Window) Register(key string, cb ResultFunc) (Presenter, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.callbacks[key]; ok {
		return nil, fmt.Errorf("could not register %q: %w", key, ErrAlreadyRegistered)
	}
	w.callbacks[key] = cb

	return &windowPresenter{window: w, key: key}, nil
}

// Unregister removes the callback registered under key.
func (w *Window) Unregister(key string) {
	w.mu.Lock()
	delete(w.callbacks, key)
	w.mu.Unlock()
}

type windowPresenter struct {
	window *Window
	key    string
}

func (p *windowPresenter) Launch(l engine.Launchable) error {
	if !p.window.Attached() {
		return ErrDetached
	}

	p.window.mu.Lock()
	cb, ok := p.window.callbacks[p.key]
	p.window.mu.Unlock()
	if !ok {
		return fmt.Errorf("no callback registered for %q", p.key)
	}

	ctx := logger.WithFields(p.window.ctx, zap.String("surface", p.window.id))
	go func() {
		res := l.Run(ctx)
		logger.Debug(ctx, "engine flow finished", zap.Stringer("code", res.Code), zap.Int("pages", len(res.Pages)))
		cb(res)
	}()

	return nil
}

// Static is a Provider over a fixed surface. It reports no surface while the
// surface is unset or detached.
type Static struct {
	Surface Surface
}

// Current implements Provider.
func (s Static) Current() Surface {
	if s.Surface == nil || !s.Surface.Attached() {
		return nil
	}

	return s.Surface
}
