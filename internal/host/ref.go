package host

import "sync"

// Ref is a session-scoped borrowed reference to a surface. It never extends the
// surface's lifetime: once released, or once the host detaches the surface, Get
// reports false and callers must skip whatever they wanted to do with it.
type Ref struct {
	mu      sync.Mutex
	surface Surface
}

// Borrow returns a reference to s valid until Release.
func Borrow(s Surface) *Ref {
	return &Ref{surface: s}
}

// Get returns the borrowed surface if it is still usable.
func (r *Ref) Get() (Surface, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surface == nil || !r.surface.Attached() {
		return nil, false
	}

	return r.surface, true
}

// Release drops the reference. It is safe to call more than once.
func (r *Ref) Release() {
	if r == nil {
		return
	}

	r.mu.Lock()
	r.surface = nil
	r.mu.Unlock()
}
