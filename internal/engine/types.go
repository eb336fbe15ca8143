package engine

import "fmt"

// Format is the raster format pages are produced in.
type Format string

// FormatJPEG is the engine baseline format. Pages are always produced as JPEG.
const FormatJPEG Format = "image/jpeg"

// Mode selects how much of the scanning UI the engine exposes.
type Mode string

const (
	// ModeFull enables cropping, filters and page management in the engine UI.
	ModeFull Mode = "full"
	// ModeBase restricts the engine to plain capture.
	ModeBase Mode = "base"
)

// Config is the engine configuration derived from caller options.
type Config struct {
	// PageLimit caps the number of pages. Zero leaves the engine default.
	PageLimit int
	// Format is the output format, fixed to FormatJPEG by the launcher.
	Format Format
	// Mode is the scanner UI mode.
	Mode Mode
}

// ResultCode is the outcome class reported by the engine.
type ResultCode int

const (
	// ResultCanceled means the user dismissed the engine UI.
	ResultCanceled ResultCode = iota
	// ResultOK means the user finished scanning and Pages holds the output.
	ResultOK
	// ResultFailed means the engine itself failed; Err carries its message.
	ResultFailed
)

func (c ResultCode) String() string {
	switch c {
	case ResultCanceled:
		return "canceled"
	case ResultOK:
		return "ok"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Page is one opaque page output. URI points at the page resource and may be
// empty when the engine could not persist the page.
type Page struct {
	URI string
}

// Result is the single outcome of a launched scan.
type Result struct {
	Code  ResultCode
	Pages []Page
	Err   error

	// Launch identifies the presentation that produced the result. It is empty
	// when the host delivers results it did not obtain from a tagged launch.
	Launch string
}

// Canceled returns the result reported when the user leaves the engine UI.
func Canceled() Result { return Result{Code: ResultCanceled} }

// Failed wraps an engine-level failure.
func Failed(err error) Result { return Result{Code: ResultFailed, Err: err} }

// Completed returns a successful result for the given pages.
func Completed(pages ...Page) Result { return Result{Code: ResultOK, Pages: pages} }
