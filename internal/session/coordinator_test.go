package session_test

import (
	"context"
	"docscan/internal/chrome"
	"docscan/internal/engine"
	mockengine "docscan/internal/engine/mock"
	"docscan/internal/host"
	"docscan/internal/launcher"
	"docscan/internal/resource"
	"docscan/internal/sanitizer"
	"docscan/internal/session"
	"docscan/pkg/domain"
	"docscan/pkg/logger"
	"docscan/pkg/serrors"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

// fakeSurface is a ResultRegistry that hands control of the result callback to
// the test: Launch only records the launchable, results are delivered by
// calling deliver.
type fakeSurface struct {
	id          string
	registerErr error
	launchErr   error

	chrome       atomic.Bool
	attached     atomic.Bool
	chromeWrites atomic.Int32

	mu        sync.Mutex
	registers int
	cb        host.ResultFunc
	launched  chan engine.Launchable
}

func newFakeSurface(chromeVisible bool) *fakeSurface {
	s := &fakeSurface{id: "main", launched: make(chan engine.Launchable, 8)}
	s.chrome.Store(chromeVisible)
	s.attached.Store(true)

	return s
}

func (s *fakeSurface) ID() string { return s.id }
func (s *fakeSurface) Attached() bool { return s.attached.Load() }
func (s *fakeSurface) ChromeVisible() bool { return s.chrome.Load() }
func (s *fakeSurface) SetChromeVisible(v bool) {
	s.chromeWrites.Add(1)
	s.chrome.Store(v)
}

func (s *fakeSurface) Register(_ string, cb host.ResultFunc) (host.Presenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers++
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.cb = cb

	return s, nil
}

func (s *fakeSurface) Launch(l engine.Launchable) error {
	if s.launchErr != nil {
		return s.launchErr
	}
	s.launched <- l

	return nil
}

func (s *fakeSurface) deliver(r engine.Result) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	cb(r)
}

func (s *fakeSurface) registrations() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registers
}

// plainSurface has no modal-result registration.
type plainSurface struct{}

func (plainSurface) ID() string { return "plain" }
func (plainSurface) Attached() bool { return true }
func (plainSurface) ChromeVisible() bool { return false }
func (plainSurface) SetChromeVisible(bool) {}

type harness struct {
	coord   *session.Coordinator
	surface *fakeSurface
	engine  *mockengine.MockEngine
	ctrl    *gomock.Controller
	cancel  context.CancelFunc
}

type harnessOption func(*session.Deps, *session.Options)

func withSanitizer(s session.Sanitizer) harnessOption {
	return func(d *session.Deps, _ *session.Options) { d.Sanitizer = s }
}

func withProvider(p host.Provider) harnessOption {
	return func(d *session.Deps, _ *session.Options) { d.Surfaces = p }
}

func withPlatform(version, minVersion int) harnessOption {
	return func(_ *session.Deps, o *session.Options) {
		o.PlatformVersion = version
		o.MinPlatformVersion = minVersion
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	e := mockengine.NewMockEngine(ctrl)
	surface := newFakeSurface(false)

	deps := session.Deps{
		Surfaces:  host.Static{Surface: surface},
		Launcher:  launcher.New(e, launcher.Options{}),
		Sanitizer: sanitizer.New(resource.File{}, sanitizer.Options{}),
		Guard:     chrome.New(true),
	}
	sopts := session.Options{PlatformVersion: 35, MinPlatformVersion: 21}
	for _, o := range opts {
		o(&deps, &sopts)
	}

	c := session.New(deps, sopts)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)

	return &harness{coord: c, surface: surface, engine: e, ctrl: ctrl, cancel: cancel}
}

func (h *harness) expectPrepare(times int) {
	h.engine.EXPECT().Prepare(gomock.Any(), gomock.Any()).
		Return(mockengine.NewMockLaunchable(h.ctrl), nil).Times(times)
}

func (h *harness) waitLaunched(t *testing.T) engine.Launchable {
	t.Helper()
	select {
	case l := <-h.surface.launched:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("scanner was not presented")

		return nil
	}
}

func wait(t *testing.T, p *session.Pending) (domain.ScanResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := p.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "session did not resolve")

	return res, err
}

func requireIdle(t *testing.T, c *session.Coordinator) {
	t.Helper()
	info, err := c.Current(context.Background())
	require.NoError(t, err)
	require.Nil(t, info, "slot should be empty")
}

func writePages(t *testing.T, n int) []engine.Page {
	t.Helper()
	dir := t.TempDir()
	pages := make([]engine.Page, 0, n)
	for i := range n {
		p := filepath.Join(dir, string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(p, []byte("jpeg"), 0o600))
		pages = append(pages, engine.Page{URI: resource.FileURI(p)})
	}

	return pages
}

func TestCoordinator_URISuccess(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)
	pages := writePages(t, 2)

	p, err := h.coord.Start(context.Background(), domain.ScanOptions{})
	require.NoError(t, err)
	h.waitLaunched(t)
	require.True(t, h.surface.ChromeVisible(), "chrome is forced visible during the session")

	h.surface.deliver(engine.Completed(pages...))

	res, err := wait(t, p)
	require.NoError(t, err)
	require.Equal(t, domain.ScanStatusSuccess, res.Status)
	require.Equal(t, []string{pages[0].URI, pages[1].URI}, res.Images)

	require.False(t, h.surface.ChromeVisible(), "chrome restored to its pre-session value")
	requireIdle(t, h.coord)
}

func TestCoordinator_Cancel(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)

	h.surface.deliver(engine.Result{Code: engine.ResultCanceled, Pages: []engine.Page{{URI: "file:///ignored.jpg"}}})

	res, err := wait(t, p)
	require.NoError(t, err)
	require.Equal(t, domain.ScanStatusCancel, res.Status)
	require.NotNil(t, res.Images)
	require.Empty(t, res.Images)
	require.False(t, h.surface.ChromeVisible())
	requireIdle(t, h.coord)
}

func TestCoordinator_UnknownResultCodeIsCancel(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)

	h.surface.deliver(engine.Result{Code: engine.ResultCode(42)})

	res, err := wait(t, p)
	require.NoError(t, err)
	require.Equal(t, domain.CancelResult(), res)
}

func TestCoordinator_Base64FailureIsAllOrNothing(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(2)

	pages := []engine.Page{{URI: "p1"}, {URI: "p2"}, {URI: "p3"}}
	p, err := h.coord.Start(context.Background(), domain.ScanOptions{ResponseType: domain.ResponseTypeBase64})
	require.NoError(t, err)
	h.waitLaunched(t)
	h.surface.deliver(engine.Completed(pages...))

	res, err := wait(t, p)
	require.ErrorIs(t, err, session.ErrDocumentScan)
	require.Equal(t, session.CategoryFatal, session.CategoryOf(err))
	require.Equal(t, "document_scan_error", session.Reason(err))
	require.Empty(t, res.Images)
	require.False(t, h.surface.ChromeVisible())
	requireIdle(t, h.coord)

	// a new session is admitted right away
	p2, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)
	h.surface.deliver(engine.Canceled())
	_, err = wait(t, p2)
	require.NoError(t, err)
}

func TestCoordinator_SecondStartRejectedWhileInProgress(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)
	pages := writePages(t, 1)

	first, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)

	second, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.Nil(t, second)
	require.ErrorIs(t, err, session.ErrInProgress)
	require.Equal(t, session.CategoryPrecondition, session.CategoryOf(err))

	info, err := h.coord.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, first.ID(), info.ID)

	h.waitLaunched(t)
	h.surface.deliver(engine.Completed(pages...))

	res, err := wait(t, first)
	require.NoError(t, err)
	require.Equal(t, []string{pages[0].URI}, res.Images)
}

func TestCoordinator_ConcurrentStartsAdmitOne(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
		busy     atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, session.ErrInProgress):
				busy.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, admitted.Load())
	require.EqualValues(t, 19, busy.Load())
	h.waitLaunched(t)
}

func TestCoordinator_CanceledContextLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the engine mock has no Prepare expectation yet, so any launch fails the test
	for range 200 {
		p, err := h.coord.Start(ctx, domain.DefaultScanOptions())
		require.Nil(t, p)
		require.ErrorIs(t, err, context.Canceled)
	}

	requireIdle(t, h.coord)
	require.Zero(t, h.surface.chromeWrites.Load())
	require.Zero(t, h.surface.registrations())

	h.expectPrepare(1)
	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)
	h.surface.deliver(engine.Canceled())
	res, err := wait(t, p)
	require.NoError(t, err)
	require.Equal(t, domain.CancelResult(), res)
}

func TestCoordinator_NoSurface(t *testing.T) {
	h := newHarness(t, withProvider(host.Static{}))

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.Nil(t, p)
	require.ErrorIs(t, err, session.ErrNoSurface)
	require.Equal(t, "no_activity", session.Reason(err))
	require.Zero(t, h.surface.chromeWrites.Load())
	requireIdle(t, h.coord)
}

func TestCoordinator_InvalidSurface(t *testing.T) {
	h := newHarness(t, withProvider(host.ProviderFunc(func() host.Surface { return plainSurface{} })))

	_, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.ErrorIs(t, err, session.ErrInvalidSurface)
	requireIdle(t, h.coord)
}

func TestCoordinator_UnsupportedPlatform(t *testing.T) {
	h := newHarness(t, withPlatform(12, 13))

	_, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.ErrorIs(t, err, session.ErrUnsupportedPlatform)
	require.Equal(t, session.CategoryPrecondition, session.CategoryOf(err))
	require.Zero(t, h.surface.chromeWrites.Load())
	requireIdle(t, h.coord)
}

func TestCoordinator_PrepareFailure(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("module unavailable")
	h.engine.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(nil, boom)

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)

	_, err = wait(t, p)
	require.ErrorIs(t, err, session.ErrScannerInit)
	require.ErrorIs(t, err, boom)
	require.Equal(t, session.CategoryLaunch, session.CategoryOf(err))
	require.False(t, h.surface.ChromeVisible())
	requireIdle(t, h.coord)
}

func TestCoordinator_PresentFailure(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)
	h.surface.launchErr = errors.New("no window token")

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)

	_, err = wait(t, p)
	require.ErrorIs(t, err, session.ErrLauncher)
	require.False(t, h.surface.ChromeVisible())
	requireIdle(t, h.coord)
}

func TestCoordinator_RegistrationFailure(t *testing.T) {
	h := newHarness(t)
	h.surface.registerErr = host.ErrAlreadyRegistered

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)

	_, err = wait(t, p)
	require.ErrorIs(t, err, session.ErrLauncher)
	require.ErrorIs(t, err, host.ErrAlreadyRegistered)
	require.False(t, h.surface.ChromeVisible())
	requireIdle(t, h.coord)
}

func TestCoordinator_RegistersOncePerCoordinator(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(3)

	for range 3 {
		p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
		require.NoError(t, err)
		h.waitLaunched(t)
		h.surface.deliver(engine.Canceled())
		_, err = wait(t, p)
		require.NoError(t, err)
	}

	require.Equal(t, 1, h.surface.registrations())
}

func TestCoordinator_EngineFailure(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)

	h.surface.deliver(engine.Failed(errors.New("camera unavailable")))

	_, err = wait(t, p)
	require.ErrorIs(t, err, session.ErrDocumentScan)
	require.ErrorContains(t, err, "camera unavailable")
}

func TestCoordinator_DuplicateAndLateResultsIgnored(t *testing.T) {
	calls := atomic.Int32{}
	release := make(chan struct{})
	slow := session.SanitizerFunc(func(_ context.Context, pages []engine.Page, _ domain.ScanOptions) ([]string, error) {
		calls.Add(1)
		<-release

		return []string{pages[0].URI}, nil
	})
	h := newHarness(t, withSanitizer(slow))
	h.expectPrepare(1)

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)

	h.surface.deliver(engine.Completed(engine.Page{URI: "first"}))
	// arrives while the first result is being materialized
	h.surface.deliver(engine.Completed(engine.Page{URI: "second"}))
	h.surface.deliver(engine.Canceled())
	close(release)

	res, err := wait(t, p)
	require.NoError(t, err)
	require.Equal(t, []string{"first"}, res.Images)

	// late delivery with an empty slot is a no-op
	h.surface.deliver(engine.Canceled())
	requireIdle(t, h.coord)
	require.EqualValues(t, 1, calls.Load())
}

func TestCoordinator_ResultOfEarlierLaunchIgnored(t *testing.T) {
	h := newHarness(t)
	pages := writePages(t, 2)

	first := mockengine.NewMockLaunchable(h.ctrl)
	first.EXPECT().Run(gomock.Any()).Return(engine.Completed(pages[0]))
	second := mockengine.NewMockLaunchable(h.ctrl)
	second.EXPECT().Run(gomock.Any()).Return(engine.Completed(pages[1]))
	gomock.InOrder(
		h.engine.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(first, nil),
		h.engine.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(second, nil),
	)

	p1, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	stale := h.waitLaunched(t).Run(context.Background())
	require.Equal(t, p1.ID().String(), stale.Launch)
	h.surface.deliver(stale)

	res, err := wait(t, p1)
	require.NoError(t, err)
	require.Equal(t, []string{pages[0].URI}, res.Images)

	p2, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	launched := h.waitLaunched(t)

	// the first session's result shows up again while the second is presenting
	h.surface.deliver(stale)
	info, err := h.coord.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, p2.ID(), info.ID)

	h.surface.deliver(launched.Run(context.Background()))
	res, err = wait(t, p2)
	require.NoError(t, err)
	require.Equal(t, []string{pages[1].URI}, res.Images)
}

func TestCoordinator_ChromeRestoredAfterEveryOutcome(t *testing.T) {
	outcomes := map[string]func(h *harness){
		"success": func(h *harness) { h.surface.deliver(engine.Completed()) },
		"cancel":  func(h *harness) { h.surface.deliver(engine.Canceled()) },
		"failure": func(h *harness) { h.surface.deliver(engine.Failed(errors.New("x"))) },
	}

	for name, finish := range outcomes {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.expectPrepare(1)
			h.surface.chrome.Store(true)

			p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
			require.NoError(t, err)
			h.waitLaunched(t)
			finish(h)

			_, _ = wait(t, p)
			require.True(t, h.surface.ChromeVisible())
			requireIdle(t, h.coord)
		})
	}
}

func TestCoordinator_ShutdownRejectsInFlight(t *testing.T) {
	h := newHarness(t)
	h.expectPrepare(1)

	p, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())
	require.NoError(t, err)
	h.waitLaunched(t)

	h.cancel()

	_, err = wait(t, p)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.False(t, h.surface.ChromeVisible())

	// eventually Start reports the coordinator as unavailable
	require.Eventually(t, func() bool {
		_, err := h.coord.Start(context.Background(), domain.DefaultScanOptions())

		return errors.Is(err, serrors.ErrUnavailable)
	}, time.Second, 10*time.Millisecond)
}

func TestCoordinator_EndToEndWithWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	e := mockengine.NewMockEngine(ctrl)
	ln := mockengine.NewMockLaunchable(ctrl)
	pages := writePages(t, 3)

	e.EXPECT().Prepare(gomock.Any(), engine.Config{PageLimit: 3, Format: engine.FormatJPEG, Mode: engine.ModeFull}).
		Return(ln, nil)
	ln.EXPECT().Run(gomock.Any()).Return(engine.Completed(pages...))

	w := host.NewWindow(context.Background(), "main", false)
	c := session.New(session.Deps{
		Surfaces:  host.Static{Surface: w},
		Launcher:  launcher.New(e, launcher.Options{}),
		Sanitizer: sanitizer.New(resource.File{}, sanitizer.Options{}),
		Guard:     chrome.New(true),
	}, session.Options{PlatformVersion: 1, MinPlatformVersion: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	res, err := c.Scan(context.Background(), domain.ScanOptions{MaxPages: 3})
	require.NoError(t, err)
	require.Equal(t, domain.ScanStatusSuccess, res.Status)
	require.Len(t, res.Images, 3)
	for i := range pages {
		require.Equal(t, pages[i].URI, res.Images[i])
	}
	require.False(t, w.ChromeVisible())
}
