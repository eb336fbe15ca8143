package v1handler

import (
	"docscan/pkg/serrors"
	"net/http"

	"github.com/go-faster/jx"
)

func (h Handler) writeHost(w http.ResponseWriter) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(h.deps.Host.ID()) })
		e.Field("attached", func(e *jx.Encoder) { e.Bool(h.deps.Host.Attached()) })
		e.Field("chromeVisible", func(e *jx.Encoder) { e.Bool(h.deps.Host.ChromeVisible()) })
	})
	writeJSON(w, http.StatusOK, &e)
}

func (h Handler) hostOr404(w http.ResponseWriter, r *http.Request) bool {
	if h.deps.Host == nil {
		h.writeError(w, r, serrors.With(serrors.ErrNotFound, "no controllable host surface"))

		return false
	}

	return true
}

// GetHost reports the host surface state.
func (h Handler) GetHost(w http.ResponseWriter, r *http.Request) {
	if h.hostOr404(w, r) {
		h.writeHost(w)
	}
}

// AttachHost hands the surface back to the host.
func (h Handler) AttachHost(w http.ResponseWriter, r *http.Request) {
	if h.hostOr404(w, r) {
		h.deps.Host.Attach()
		h.writeHost(w)
	}
}

// DetachHost takes the surface away. A running session keeps going; its chrome
// restore is skipped.
func (h Handler) DetachHost(w http.ResponseWriter, r *http.Request) {
	if h.hostOr404(w, r) {
		h.deps.Host.Detach()
		h.writeHost(w)
	}
}
