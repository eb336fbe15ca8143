// Package v1handler implements the v1 HTTP API: blocking document scans, the
// current session snapshot and host surface control.
package v1handler

import (
	"context"
	"docscan/internal/session"
	"docscan/pkg/logger"
	"docscan/pkg/serrors"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Deps are the services the handler serves. Host may be nil.
type Deps struct {
	Scanner Scanner
	Host    Host
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Routes registers the v1 endpoints on r.
func (h Handler) Routes(r chi.Router) {
	r.Post("/scans", h.CreateScan)
	r.Get("/session", h.GetSession)
	r.Route("/host", func(r chi.Router) {
		r.Get("/", h.GetHost)
		r.Post("/attach", h.AttachHost)
		r.Post("/detach", h.DetachHost)
	})
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string
	Message string
}

// ErrorStatusCode pairs an ErrorResponse with its HTTP status.
type ErrorStatusCode struct {
	StatusCode int
	Response   ErrorResponse
}

// statusOf maps semantic kinds to HTTP statuses.
var statusOf = map[serrors.Kind]int{ //nolint: gochecknoglobals
	serrors.ErrNotFound:            http.StatusNotFound,
	serrors.ErrUnauthorized:        http.StatusUnauthorized,
	serrors.ErrBadRequest:          http.StatusBadRequest,
	serrors.ErrConflict:            http.StatusConflict,
	serrors.ErrInternal:            http.StatusInternalServerError,
	serrors.ErrUnavailable:         http.StatusServiceUnavailable,
	session.ErrNoSurface:           http.StatusServiceUnavailable,
	session.ErrInvalidSurface:      http.StatusPreconditionFailed,
	session.ErrInProgress:          http.StatusConflict,
	session.ErrUnsupportedPlatform: http.StatusNotImplemented,
	session.ErrScannerInit:         http.StatusBadGateway,
	session.ErrLauncher:            http.StatusBadGateway,
	session.ErrDocumentScan:        http.StatusBadGateway,
}

// defaultMessages are used when a semantic error carries no message.
var defaultMessages = map[serrors.Kind]string{ //nolint: gochecknoglobals
	serrors.ErrNotFound:     "resource not found",
	serrors.ErrUnauthorized: "unauthorized",
	serrors.ErrBadRequest:   "bad request",
	serrors.ErrConflict:     "conflict",
	serrors.ErrInternal:     "internal error",
	serrors.ErrUnavailable:  "service unavailable",
}

// NewError converts err into an error response. Errors without a known kind
// are reported as internal errors and their details are only logged.
func (h Handler) NewError(ctx context.Context, err error) *ErrorStatusCode {
	kind := serrors.KindOf(err)
	status, known := statusOf[kind]
	if !known {
		logger.Error(ctx, "unhandled error", zap.Error(err))

		return &ErrorStatusCode{
			StatusCode: http.StatusInternalServerError,
			Response:   ErrorResponse{Code: serrors.ErrInternal.Error(), Message: "internal error"},
		}
	}

	msg := defaultMessages[kind]
	var se *serrors.Error
	if errors.As(err, &se) && se.Message() != "" {
		msg = se.Message()
	}
	if msg == "" {
		msg = kind.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err), zap.Int("status", status))
	} else {
		logger.Info(ctx, "request rejected", zap.Error(err), zap.Int("status", status))
	}

	return &ErrorStatusCode{
		StatusCode: status,
		Response:   ErrorResponse{Code: kind.Error(), Message: msg},
	}
}

func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(res.Response.Code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(res.Response.Message) })
	})
	writeJSON(w, res.StatusCode, &e)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
