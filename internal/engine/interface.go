// Package engine defines the contract between the scan session coordinator and
// an external document-scanning engine. The engine owns the scanning flow
// (capture, crop, page management, retake) and only reports the final set of
// pages together with a result code.
package engine

import (
	"context"
)

// Engine prepares launchable scan requests from a configuration.
//
//go:generate mockgen -package mockengine -source=interface.go -destination=mock/mockengine.go *
type Engine interface {
	// Prepare builds a launchable request for the given configuration. It is the
	// first of the two launch phases; failures here are reported before anything
	// is presented to the user.
	Prepare(ctx context.Context, cfg Config) (Launchable, error)
}

// Launchable is an opaque request obtained from Prepare that can be handed to a
// host presentation mechanism.
type Launchable interface {
	// Run drives the engine's interactive flow and blocks until the engine has a
	// final outcome. Hosts call it from their own presentation goroutine.
	Run(ctx context.Context) Result
}
