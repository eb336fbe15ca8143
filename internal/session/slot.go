package session

import (
	"context"
	"docscan/internal/host"
	"docscan/pkg/domain"
	"time"
)

type phase int

const (
	// phaseLaunching covers registration and the prepare phase.
	phaseLaunching phase = iota
	// phasePresenting means the engine UI is up and a result is awaited.
	phasePresenting
	// phaseMaterializing means a result was received and is being sanitized.
	phaseMaterializing
)

// slot is the state of the single in-flight session. It is only read or
// written on the coordinator loop.
type slot struct {
	id      domain.SessionID
	pending *Pending
	options domain.ScanOptions
	// surface is borrowed for the session and released by complete.
	surface   *host.Ref
	surfaceID string
	operator  *domain.OperatorID
	ctx       context.Context //nolint: containedctx
	startedAt time.Time
	phase     phase
}

func (s *slot) info() domain.SessionInfo {
	return domain.SessionInfo{
		ID:        s.id,
		Options:   s.options,
		Surface:   s.surfaceID,
		Operator:  s.operator,
		StartedAt: s.startedAt,
	}
}
