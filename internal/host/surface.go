// Package host models the presenting UI surface supplied by the surrounding
// application. A surface is borrowed by a scan session for its duration only;
// its lifetime belongs to the host.
package host

import (
	"errors"

	"docscan/internal/engine"
)

// ErrAlreadyRegistered is returned when a result callback is registered twice
// under the same key on one surface.
var ErrAlreadyRegistered = errors.New("result callback already registered")

// ErrDetached is returned when a surface is used after the host detached it.
var ErrDetached = errors.New("surface detached")

// Surface is the minimal presenting surface: it has an identity, can report
// whether the host still holds it, and exposes the chrome visibility flag.
type Surface interface {
	ID() string
	// Attached reports whether the host still owns a live surface.
	Attached() bool
	// ChromeVisible reports whether system chrome is laid out around the surface.
	ChromeVisible() bool
	// SetChromeVisible forces chrome visibility on or off.
	SetChromeVisible(visible bool)
}

// ResultFunc receives the single outcome of a launched scan.
type ResultFunc func(engine.Result)

// Presenter is a launch handle returned by a result registration.
type Presenter interface {
	// Launch presents the launchable modally. The outcome is delivered to the
	// ResultFunc given at registration time, from an arbitrary goroutine.
	Launch(l engine.Launchable) error
}

// ResultRegistry is the capability class required to host a scan: a surface
// with a modal-result registration mechanism.
type ResultRegistry interface {
	Surface
	// Register installs cb under key and returns the presenter that launches
	// into it. Registering the same key twice fails with ErrAlreadyRegistered.
	Register(key string, cb ResultFunc) (Presenter, error)
}

// Provider returns the surface currently able to present, or nil when the host
// has none.
type Provider interface {
	Current() Surface
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() Surface

// Current implements Provider.
func (f ProviderFunc) Current() Surface { return f() }
