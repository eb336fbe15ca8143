package v1handler

import (
	"bytes"
	"docscan/pkg/domain"
	"docscan/pkg/logger"
	"docscan/pkg/serrors"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// maxOptionsBytes bounds the scan request body.
const maxOptionsBytes = 1 << 16

// DecodeScanOptions reads the option object of a scan request. An empty body
// yields the default options.
func DecodeScanOptions(body []byte) (domain.ScanOptions, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.DefaultScanOptions(), nil
	}

	raw := map[string]any{}
	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		v, err := decodeScalar(d)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		raw[string(key)] = v

		return nil
	}); err != nil {
		return domain.ScanOptions{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid scan options")
	}

	opts, err := domain.ParseScanOptions(raw)
	if err != nil {
		return domain.ScanOptions{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid scan options")
	}

	return opts, nil
}

// decodeScalar returns strings, numbers (int64 or float64), bools and nil.
// Composite values are skipped and reported as their JSON type name so that
// option parsing rejects them for known keys.
func decodeScalar(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.String:
		return d.Str() //nolint: wrapcheck
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err //nolint: wrapcheck
		}
		if n.IsInt() {
			return n.Int64() //nolint: wrapcheck
		}

		return n.Float64() //nolint: wrapcheck
	case jx.Bool:
		return d.Bool() //nolint: wrapcheck
	case jx.Null:
		return nil, d.Null() //nolint: wrapcheck
	default:
		t := d.Next().String()

		return struct{ Type string }{t}, d.Skip() //nolint: wrapcheck
	}
}

// EncodeScanResult writes the response object of a finished scan.
func EncodeScanResult(e *jx.Encoder, res domain.ScanResult) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(string(res.Status)) })
		e.Field("scannedImages", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, img := range res.Images {
					e.Str(img)
				}
			})
		})
	})
}

// EncodeSessionInfo writes the snapshot of the session occupying the scanner.
func EncodeSessionInfo(e *jx.Encoder, info *domain.SessionInfo) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("active", func(e *jx.Encoder) { e.Bool(info != nil) })
		if info == nil {
			return
		}
		e.Field("id", func(e *jx.Encoder) { e.Str(info.ID.String()) })
		e.Field("surface", func(e *jx.Encoder) { e.Str(info.Surface) })
		e.Field("startedAt", func(e *jx.Encoder) { e.Str(info.StartedAt.UTC().Format(time.RFC3339Nano)) })
		if info.Operator != nil {
			e.Field("operator", func(e *jx.Encoder) { e.Str(info.Operator.String()) })
		}
		e.Field("options", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("responseType", func(e *jx.Encoder) { e.Str(string(info.Options.ResponseType)) })
				e.Field("maxPages", func(e *jx.Encoder) { e.Int(info.Options.MaxPages) })
				e.Field("imageQuality", func(e *jx.Encoder) { e.Int(info.Options.ImageQuality) })
			})
		})
	})
}

// CreateScan runs a scan session and responds once it resolves. The session is
// not tied to the request: a client that goes away leaves it running until the
// engine reports.
func (h Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxOptionsBytes))
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "could not read request body"))

		return
	}

	opts, err := DecodeScanOptions(body)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	res, err := h.deps.Scanner.Scan(r.Context(), opts)
	if err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			logger.Info(r.Context(), "client went away before the scan resolved", zap.Error(err))

			return
		}
		h.writeError(w, r, err)

		return
	}

	var e jx.Encoder
	EncodeScanResult(&e, res)
	writeJSON(w, http.StatusOK, &e)
}

// GetSession reports the session currently occupying the scanner.
func (h Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Scanner.Current(r.Context())
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var e jx.Encoder
	EncodeSessionInfo(&e, info)
	writeJSON(w, http.StatusOK, &e)
}
