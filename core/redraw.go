package core

import (
	"sync"
	"sync/atomic"
)

// RedrawTrigger asks the UI context to wake up and render. One trigger
// exists per UI context; it is created when the UI starts and closed when it
// is torn down.
//
// Request is safe from any goroutine. Requests coalesce: between two Acks
// the UI primitive is invoked at most once, and a Request after an Ack always
// reaches it again. There is no time-based batching window.
type RedrawTrigger struct {
	// mu is held for reading while the primitive runs and for writing by
	// Close, so no primitive call can start after Close returns.
	mu      sync.RWMutex
	request func()
	closed  bool

	outstanding atomic.Bool

	requested atomic.Int64
	fired     atomic.Int64
	dropped   atomic.Int64
}

// NewRedrawTrigger wraps the UI framework's redraw-request primitive.
// request must not block for long; it may be nil for headless use.
func NewRedrawTrigger(request func()) *RedrawTrigger {
	return &RedrawTrigger{request: request}
}

// Request asks for a redraw. After Close it is silently dropped.
func (r *RedrawTrigger) Request() {
	if r == nil {
		return
	}
	// Counted on return so Requested never runs ahead of the primitive call.
	defer r.requested.Add(1)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	if !r.outstanding.CompareAndSwap(false, true) {
		return
	}
	r.fired.Add(1)
	if r.request != nil {
		r.request()
	}
}

// Ack marks the outstanding request as served. The UI context calls it at
// the start of each poll, before draining outcomes.
func (r *RedrawTrigger) Ack() {
	if r == nil {
		return
	}
	r.outstanding.Store(false)
}

// Outstanding reports whether a request is waiting for the UI.
func (r *RedrawTrigger) Outstanding() bool {
	return r != nil && r.outstanding.Load()
}

// Close tears the trigger down with its UI context. Repeated calls are safe.
func (r *RedrawTrigger) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// IsClosed reports whether Close was called.
func (r *RedrawTrigger) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// RedrawStats counts trigger activity.
type RedrawStats struct {
	Requested int64 // Request calls
	Fired     int64 // primitive invocations
	Dropped   int64 // requests after Close
}

func (r *RedrawTrigger) Stats() RedrawStats {
	return RedrawStats{
		Requested: r.requested.Load(),
		Fired:     r.fired.Load(),
		Dropped:   r.dropped.Load(),
	}
}
