package v1handler

import (
	"context"
	"docscan/pkg/domain"
)

// Scanner is the scan session service behind the v1 API.
//
//go:generate mockgen -package mockv1handler -source=interface.go -destination=mock/mockv1handler.go *
type Scanner interface {
	// Scan admits a session and blocks until it resolves.
	Scan(ctx context.Context, opts domain.ScanOptions) (domain.ScanResult, error)
	// Current returns the session occupying the scanner, or nil.
	Current(ctx context.Context) (*domain.SessionInfo, error)
}

// Host is the controllable presentation surface.
type Host interface {
	ID() string
	Attached() bool
	ChromeVisible() bool
	Attach()
	Detach()
}
