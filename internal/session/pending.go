package session

import (
	"context"
	"docscan/pkg/domain"
	"sync"
)

// Pending is the completion handle of an admitted session. It resolves exactly
// once, with either a result or an error.
type Pending struct {
	id   domain.SessionID
	done chan struct{}
	once sync.Once

	result domain.ScanResult
	err    error
}

func newPending(id domain.SessionID) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

// ID returns the session identifier.
func (p *Pending) ID() domain.SessionID { return p.id }

// Done is closed when the session has resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the session resolves or ctx is done. Canceling ctx stops
// waiting only; the session keeps running until the engine reports.
func (p *Pending) Wait(ctx context.Context) (domain.ScanResult, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return domain.ScanResult{}, ctx.Err() //nolint: wrapcheck
	}
}

// resolve fires the handle. It reports false if the handle had already fired.
func (p *Pending) resolve(res domain.ScanResult, err error) bool {
	fired := false
	p.once.Do(func() {
		p.result, p.err = res, err
		close(p.done)
		fired = true
	})

	return fired
}
