package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// LoopHost binds a dedicated goroutine that executes posted turns one at a
// time, in post order. It gives native builds the same single-threaded,
// callback-driven model a browser event loop provides.
type LoopHost struct {
	mu     sync.Mutex
	turns  []func()
	signal chan struct{}

	// Lifecycle control
	ctx    context.Context
	cancel context.CancelFunc

	stopped chan struct{}
	once    sync.Once
	closed  atomic.Bool

	// Set for the duration of a turn; used to detect re-entrant waits.
	inTurn atomic.Bool

	// OnPanic, when set, receives panics escaping a turn. The loop survives.
	OnPanic func(value any, stack []byte)
}

var _ Host = (*LoopHost)(nil)

// NewLoopHost creates and starts a LoopHost.
func NewLoopHost() *LoopHost {
	ctx, cancel := context.WithCancel(context.Background())
	h := &LoopHost{
		signal:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	// Start the dedicated message loop
	go h.runLoop()

	return h
}

// Post queues fn for a later turn. It never blocks.
func (h *LoopHost) Post(fn func()) error {
	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		return ErrHostClosed
	}
	h.turns = append(h.turns, fn)
	h.mu.Unlock()

	select {
	case h.signal <- struct{}{}:
	default:
	}
	return nil
}

// IsClosed returns true if the host has been stopped
func (h *LoopHost) IsClosed() bool {
	return h.closed.Load()
}

// Pending returns the number of queued turns.
func (h *LoopHost) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Stop rejects further posts, waits for the current turn, then runs the
// turns still queued on the calling goroutine. Posts made by those turns
// fail with ErrHostClosed, so each queued turn runs once and nothing is
// left behind. It must not be called from within a turn.
func (h *LoopHost) Stop() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed.Store(true)
		h.mu.Unlock()

		h.cancel()
		<-h.stopped

		for fn, ok := h.next(); ok; fn, ok = h.next() {
			h.runTurn(fn)
		}
	})
}

// WaitIdle blocks until every turn posted before the call has run.
// It is implemented by posting a barrier turn.
func (h *LoopHost) WaitIdle(ctx context.Context) error {
	if h.inTurn.Load() {
		return fmt.Errorf("WaitIdle called from within a host turn")
	}

	done := make(chan struct{})
	if err := h.Post(func() { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop is the core of this host, it occupies a dedicated goroutine
func (h *LoopHost) runLoop() {
	defer close(h.stopped)

	for {
		select {
		case <-h.ctx.Done():
			return
		default:
		}

		fn, ok := h.next()
		if !ok {
			select {
			case <-h.signal:
				continue
			case <-h.ctx.Done():
				return
			}
		}
		h.runTurn(fn)
	}
}

func (h *LoopHost) next() (func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.turns) == 0 {
		return nil, false
	}
	fn := h.turns[0]
	h.turns[0] = nil
	h.turns = h.turns[1:]
	return fn, true
}

func (h *LoopHost) runTurn(fn func()) {
	h.inTurn.Store(true)
	defer func() {
		h.inTurn.Store(false)
		if rec := recover(); rec != nil && h.OnPanic != nil {
			h.OnPanic(rec, debug.Stack())
		}
	}()
	fn()
}

// =============================================================================
// ManualHost: a host advanced explicitly by the caller
// =============================================================================

// ManualHost queues turns until the owner runs them. It makes cooperative
// scheduling deterministic in tests and in embedders that own the loop.
type ManualHost struct {
	mu     sync.Mutex
	turns  []func()
	closed bool
}

var _ Host = (*ManualHost)(nil)

func NewManualHost() *ManualHost {
	return &ManualHost{}
}

// Post queues fn. Safe from any goroutine.
func (h *ManualHost) Post(fn func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	h.turns = append(h.turns, fn)
	return nil
}

// RunOnce runs the oldest queued turn and reports whether one ran.
func (h *ManualHost) RunOnce() bool {
	h.mu.Lock()
	if len(h.turns) == 0 {
		h.mu.Unlock()
		return false
	}
	fn := h.turns[0]
	h.turns[0] = nil
	h.turns = h.turns[1:]
	h.mu.Unlock()

	fn()
	return true
}

// RunPending runs the turns queued at the time of the call, not the ones
// they post, and returns how many ran.
func (h *ManualHost) RunPending() int {
	h.mu.Lock()
	n := len(h.turns)
	h.mu.Unlock()

	ran := 0
	for ran < n && h.RunOnce() {
		ran++
	}
	return ran
}

// RunUntilIdle runs turns until the queue is empty or limit turns ran.
// limit <= 0 means no limit.
func (h *ManualHost) RunUntilIdle(limit int) int {
	ran := 0
	for (limit <= 0 || ran < limit) && h.RunOnce() {
		ran++
	}
	return ran
}

// Len returns the number of queued turns.
func (h *ManualHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Close rejects further posts. Queued turns can still be run.
func (h *ManualHost) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

// IsClosed reports whether Close was called.
func (h *ManualHost) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
