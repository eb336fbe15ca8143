package session

import (
	"docscan/pkg/serrors"
	"errors"
)

// Failure reasons. Each is a serrors.Kind whose string is the wire code
// reported to callers.
var (
	ErrNoSurface           = serrors.NewKind("no_activity")
	ErrInvalidSurface      = serrors.NewKind("invalid_activity")
	ErrInProgress          = serrors.NewKind("scan_in_progress")
	ErrUnsupportedPlatform = serrors.NewKind("unsupported_platform_version")
	ErrScannerInit         = serrors.NewKind("scanner_init_error")
	ErrLauncher            = serrors.NewKind("launcher_error")
	ErrDocumentScan        = serrors.NewKind("document_scan_error")
)

// Category groups failure reasons by when they happen.
type Category int

const (
	// CategoryUnknown is any error that is not a scan failure reason.
	CategoryUnknown Category = iota
	// CategoryPrecondition errors are rejected before any state changes; the
	// caller may retry immediately.
	CategoryPrecondition
	// CategoryLaunch errors happen during prepare or present.
	CategoryLaunch
	// CategoryFatal errors happen while materialising the result; any partial
	// images are discarded.
	CategoryFatal
)

func (c Category) String() string {
	switch c {
	case CategoryPrecondition:
		return "precondition"
	case CategoryLaunch:
		return "launch"
	case CategoryFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CategoryOf classifies err.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrNoSurface), errors.Is(err, ErrInvalidSurface),
		errors.Is(err, ErrInProgress), errors.Is(err, ErrUnsupportedPlatform):
		return CategoryPrecondition
	case errors.Is(err, ErrScannerInit), errors.Is(err, ErrLauncher):
		return CategoryLaunch
	case errors.Is(err, ErrDocumentScan):
		return CategoryFatal
	default:
		return CategoryUnknown
	}
}

// Reason returns the wire code of err, or "" when err carries no kind.
func Reason(err error) string {
	if k := serrors.KindOf(err); k != nil {
		return k.Error()
	}

	return ""
}
