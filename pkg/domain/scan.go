package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies an admitted scan session.
type SessionID uuid.UUID

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// String returns the canonical UUID form.
func (id SessionID) String() string { return uuid.UUID(id).String() }

// ResponseType selects how scanned pages are returned to the caller.
type ResponseType string

const (
	// ResponseTypeURI returns resource URIs of the scanned pages.
	ResponseTypeURI ResponseType = "uri"
	// ResponseTypeBase64 returns the scanned pages as base64 encoded JPEG.
	ResponseTypeBase64 ResponseType = "base64"
)

// ParseResponseType matches s case-insensitively. Anything that is not base64
// falls back to uri.
func ParseResponseType(s string) ResponseType {
	if strings.EqualFold(strings.TrimSpace(s), string(ResponseTypeBase64)) {
		return ResponseTypeBase64
	}

	return ResponseTypeURI
}

// DefaultImageQuality is the JPEG quality used when the caller sets none.
const DefaultImageQuality = 100

// ScanOptions are the caller-supplied settings of a session. They are immutable
// once the session is admitted. The zero value is not the default: its
// ImageQuality is 0. Use DefaultScanOptions as the starting point.
type ScanOptions struct {
	// ResponseType selects uri passthrough or inline base64 encoding.
	ResponseType ResponseType `json:"responseType"`
	// MaxPages caps the number of pages; zero leaves the engine default.
	MaxPages int `json:"maxPages,omitempty"`
	// ImageQuality is the JPEG quality in [0,100] used in base64 mode. Values
	// outside the range are passed through unchanged.
	ImageQuality int `json:"imageQuality"`
}

// DefaultScanOptions returns the options used for an empty request.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		ResponseType: ResponseTypeURI,
		ImageQuality: DefaultImageQuality,
	}
}

// Normalize canonicalizes the response type and page limit: anything but
// base64 becomes uri and a negative page limit becomes zero ("engine
// default"). ImageQuality is kept as is, zero included, since zero is a valid
// quality; callers that want the default quality start from
// DefaultScanOptions.
func (o ScanOptions) Normalize() ScanOptions {
	if o.ResponseType != ResponseTypeBase64 {
		o.ResponseType = ResponseTypeURI
	}
	if o.MaxPages < 0 {
		o.MaxPages = 0
	}

	return o
}

// ScanStatus is the terminal status of a successful session.
type ScanStatus string

const (
	// ScanStatusSuccess means the user finished scanning.
	ScanStatusSuccess ScanStatus = "success"
	// ScanStatusCancel means the user dismissed the scanner.
	ScanStatusCancel ScanStatus = "cancel"
)

// ScanResult is produced exactly once per session.
type ScanResult struct {
	Status ScanStatus `json:"status"`
	// Images follow the order pages were produced by the engine. Always empty
	// when Status is cancel.
	Images []string `json:"scannedImages"`
}

// CancelResult returns the result reported when the user dismissed the scanner.
func CancelResult() ScanResult {
	return ScanResult{Status: ScanStatusCancel, Images: []string{}}
}

// SuccessResult returns a success result carrying images.
func SuccessResult(images []string) ScanResult {
	if images == nil {
		images = []string{}
	}

	return ScanResult{Status: ScanStatusSuccess, Images: images}
}

// SessionInfo describes the session currently occupying the scanner.
type SessionInfo struct {
	ID        SessionID   `json:"id"`
	Options   ScanOptions `json:"options"`
	Surface   string      `json:"surface"`
	Operator  *OperatorID `json:"operator,omitempty"`
	StartedAt time.Time   `json:"startedAt"`
}
