package chrome_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"docscan/internal/chrome"
	"docscan/internal/host"
)

// countingSurface records every chrome write.
type countingSurface struct {
	*host.Window
	writes int
}

func (c *countingSurface) SetChromeVisible(v bool) {
	c.writes++
	c.Window.SetChromeVisible(v)
}

func newSurface(visible bool) *countingSurface {
	return &countingSurface{Window: host.NewWindow(context.Background(), "main", visible)}
}

func TestGuard_SaveForcesVisibleAndRestores(t *testing.T) {
	s := newSurface(false)
	g := chrome.New(true)

	g.Save(s)
	require.True(t, g.Holding())
	require.True(t, s.ChromeVisible())

	g.Restore()
	require.False(t, g.Holding())
	require.False(t, s.ChromeVisible())
	require.Equal(t, 2, s.writes)
}

func TestGuard_NoDoubleSave(t *testing.T) {
	s := newSurface(false)
	g := chrome.New(true)

	g.Save(s)
	// the second save must not overwrite the snapshot with the forced value
	g.Save(s)
	g.Restore()

	require.False(t, s.ChromeVisible())
}

func TestGuard_RestoreWithoutSave(t *testing.T) {
	s := newSurface(true)
	g := chrome.New(true)

	g.Restore()
	require.Zero(t, s.writes)
	require.False(t, g.Holding())
}

func TestGuard_RestoreTargetsCapturedSurface(t *testing.T) {
	first := newSurface(false)
	g := chrome.New(true)
	g.Save(first)

	second := newSurface(false)
	g.Save(second)
	require.Zero(t, second.writes)

	g.Restore()
	require.False(t, first.ChromeVisible())
	require.Zero(t, second.writes)
}

func TestGuard_DetachedSurfaceSkipsRestore(t *testing.T) {
	s := newSurface(false)
	g := chrome.New(true)

	g.Save(s)
	s.Detach()
	g.Restore()

	require.False(t, g.Holding())
	require.Equal(t, 1, s.writes, "restore must be skipped for a detached surface")

	// state was cleared so a new session can save again
	s.Attach()
	g.Save(s)
	require.True(t, g.Holding())
}

func TestGuard_Noop(t *testing.T) {
	s := newSurface(false)
	g := chrome.New(false)

	g.Save(s)
	require.False(t, g.Holding())
	g.Restore()
	require.Zero(t, s.writes)
	require.False(t, s.ChromeVisible())
}

func TestEnabled(t *testing.T) {
	require.True(t, chrome.Enabled(35, 35))
	require.True(t, chrome.Enabled(36, 35))
	require.False(t, chrome.Enabled(34, 35))
}
