// Package mainloop provides a single serialized execution context. Every
// function posted to a Loop runs on the loop goroutine, one at a time and in
// posting order, which lets callers mutate shared state without locks as long
// as all mutations happen on the loop.
package mainloop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when work is posted to a loop that is no longer running.
var ErrStopped = errors.New("main loop stopped")

// DefaultQueueSize is the task buffer used when New receives a non-positive size.
const DefaultQueueSize = 64

// Loop is a serialized executor. The zero value is not usable; use New.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// New creates a loop with a task buffer of the given size.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is canceled. Tasks already queued when
// ctx is canceled are dropped. Run must be called at most once.
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

func (l *Loop) stop() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues fn for execution on the loop. It never runs fn inline and
// returns ErrStopped if the loop is not running anymore. Post blocks while the
// task buffer is full. A task posted while the loop is stopping may be dropped.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop and waits for it to return or for the loop to stop.
// Unlike Call it cannot give up on a queued fn, so callers always learn whether
// fn ran. fn must not block.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Call runs fn on the loop and waits for it to return. It returns early with
// ctx's error if ctx is canceled first; fn may still run afterwards in that case.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// fn may have run right before the loop stopped
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err() //nolint: wrapcheck
	}
}
