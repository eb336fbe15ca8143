package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docscan/internal/engine"
	"docscan/internal/host"
	"docscan/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

type launchFunc func(ctx context.Context) engine.Result

func (f launchFunc) Run(ctx context.Context) engine.Result { return f(ctx) }

func TestWindow_RegisterTwiceFails(t *testing.T) {
	w := host.NewWindow(context.Background(), "main", false)

	_, err := w.Register("document-scanner", func(engine.Result) {})
	require.NoError(t, err)

	_, err = w.Register("document-scanner", func(engine.Result) {})
	require.ErrorIs(t, err, host.ErrAlreadyRegistered)

	w.Unregister("document-scanner")
	_, err = w.Register("document-scanner", func(engine.Result) {})
	require.NoError(t, err)
}

func TestWindow_LaunchDeliversResult(t *testing.T) {
	w := host.NewWindow(context.Background(), "main", false)

	got := make(chan engine.Result, 1)
	p, err := w.Register("k", func(r engine.Result) { got <- r })
	require.NoError(t, err)

	require.NoError(t, p.Launch(launchFunc(func(context.Context) engine.Result {
		return engine.Completed(engine.Page{URI: "file:///a.jpg"})
	})))

	select {
	case r := <-got:
		require.Equal(t, engine.ResultOK, r.Code)
		require.Len(t, r.Pages, 1)
	case <-time.After(time.Second):
		t.Fatal("result not delivered")
	}
}

func TestWindow_LaunchDetached(t *testing.T) {
	w := host.NewWindow(context.Background(), "main", false)
	p, err := w.Register("k", func(engine.Result) {})
	require.NoError(t, err)

	w.Detach()
	require.ErrorIs(t, p.Launch(launchFunc(func(context.Context) engine.Result {
		return engine.Canceled()
	})), host.ErrDetached)
}

func TestRef_GetAfterReleaseOrDetach(t *testing.T) {
	w := host.NewWindow(context.Background(), "main", true)

	ref := host.Borrow(w)
	s, ok := ref.Get()
	require.True(t, ok)
	require.Equal(t, "main", s.ID())

	w.Detach()
	_, ok = ref.Get()
	require.False(t, ok)

	w.Attach()
	ref.Release()
	_, ok = ref.Get()
	require.False(t, ok)

	var nilRef *host.Ref
	_, ok = nilRef.Get()
	require.False(t, ok)
	nilRef.Release()
}

func TestStatic_Current(t *testing.T) {
	require.Nil(t, host.Static{}.Current())

	w := host.NewWindow(context.Background(), "main", true)
	p := host.Static{Surface: w}
	require.Equal(t, w, p.Current())

	w.Detach()
	require.Nil(t, p.Current())
}
