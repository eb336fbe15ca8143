// Package chrome saves and restores the host surface's chrome visibility around
// a scan session. On hosts where the scanner UI cannot be obscured by chrome
// the no-op guard is used instead.
package chrome

import "docscan/internal/host"

// Guard brackets a session with Save and Restore. Calls must be strictly paired
// per session and made from the coordinator's serialized context.
type Guard interface {
	// Save captures the current chrome flag of s and forces chrome visible. It
	// does nothing while a snapshot is already held.
	Save(s host.Surface)
	// Restore reapplies the captured flag to the surface captured by Save and
	// clears the snapshot. It does nothing when no snapshot is held.
	Restore()
	// Holding reports whether a snapshot is currently held.
	Holding() bool
}

// New returns the surface guard when enabled, the no-op guard otherwise.
// enabled is the host capability flag, typically platform version >= threshold.
func New(enabled bool) Guard {
	if enabled {
		return &surfaceGuard{}
	}

	return noop{}
}

// Enabled reports whether the chrome guard applies for a platform version.
func Enabled(platformVersion, threshold int) bool {
	return platformVersion >= threshold
}

type surfaceGuard struct {
	snapshot *bool
	ref      *host.Ref
}

func (g *surfaceGuard) Save(s host.Surface) {
	if g.snapshot != nil || s == nil {
		return
	}

	prev := s.ChromeVisible()
	g.snapshot = &prev
	g.ref = host.Borrow(s)
	s.SetChromeVisible(true)
}

func (g *surfaceGuard) Restore() {
	if g.snapshot == nil {
		return
	}

	// a detached surface is skipped, the snapshot is cleared either way
	if s, ok := g.ref.Get(); ok {
		s.SetChromeVisible(*g.snapshot)
	}
	g.ref.Release()
	g.snapshot = nil
	g.ref = nil
}

func (g *surfaceGuard) Holding() bool { return g.snapshot != nil }

type noop struct{}

func (noop) Save(host.Surface) {}
func (noop) Restore()          {}
func (noop) Holding() bool     { return false }
