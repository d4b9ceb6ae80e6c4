package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// ThreadedBackend runs jobs on a fixed set of worker goroutines pulling from
// a FIFO queue. With workers <= 0 every job gets its own goroutine.
// Work may block; a blocked job only occupies its own worker.
type ThreadedBackend struct {
	id      string
	workers int

	queue  *JobQueue
	signal chan struct{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// closeMu orders Run against Shutdown so no job is queued after the
	// final drain.
	closeMu sync.RWMutex
	closed  bool

	runningMu sync.RWMutex
	running   bool

	metricQueued    atomic.Int32 // Waiting in queue
	metricActive    atomic.Int32 // Executing on a worker
	metricCompleted atomic.Int64
	metricRejected  atomic.Int64
}

var _ Backend = (*ThreadedBackend)(nil)

// NewThreadedBackend creates a threaded backend. Call Start before Run.
func NewThreadedBackend(id string, workers int) *ThreadedBackend {
	return &ThreadedBackend{
		id:      id,
		workers: workers,
		queue:   NewJobQueue(),
		signal:  make(chan struct{}, max(workers*2, 1)),
	}
}

// Start starts all worker goroutines
func (tb *ThreadedBackend) Start(ctx context.Context) {
	tb.runningMu.Lock()
	defer tb.runningMu.Unlock()

	if tb.running {
		return // Already running
	}

	tb.ctx, tb.cancel = context.WithCancel(ctx)
	tb.running = true

	for i := 0; i < tb.workers; i++ {
		tb.wg.Add(1)
		go tb.workerLoop(i, tb.ctx)
	}
}

// Run queues j for a worker, or spawns a dedicated goroutine when the
// backend has no fixed pool.
func (tb *ThreadedBackend) Run(j *Job) error {
	tb.closeMu.RLock()
	defer tb.closeMu.RUnlock()

	if tb.closed || !tb.IsRunning() {
		tb.metricRejected.Add(1)
		return ErrBackendClosed
	}

	if tb.workers <= 0 {
		tb.wg.Add(1)
		go func() {
			defer tb.wg.Done()
			tb.execute(j)
		}()
		return nil
	}

	tb.queue.Push(j)
	tb.metricQueued.Add(1)

	select {
	case tb.signal <- struct{}{}:
	default:
		// Signal channel full, but the job is already queued
	}
	return nil
}

// Shutdown stops accepting jobs, stops idle workers and completes every job
// still queued with ErrBackendClosed. Jobs already running are not waited for;
// use Join for that.
func (tb *ThreadedBackend) Shutdown() {
	tb.closeMu.Lock()
	if tb.closed {
		tb.closeMu.Unlock()
		return
	}
	tb.closed = true
	tb.closeMu.Unlock()

	tb.runningMu.Lock()
	if tb.cancel != nil {
		tb.cancel()
	}
	tb.running = false
	tb.runningMu.Unlock()

	for _, j := range tb.queue.Clear() {
		tb.metricQueued.Add(-1)
		j.abort(ErrBackendClosed)
	}
}

// Join waits for all worker goroutines and per-job goroutines to finish.
func (tb *ThreadedBackend) Join() {
	tb.wg.Wait()
}

// workerLoop is the main loop for each worker
func (tb *ThreadedBackend) workerLoop(id int, ctx context.Context) {
	defer tb.wg.Done()
	stopCh := ctx.Done()

	for {
		j, ok := tb.getWork(stopCh)
		if !ok {
			return
		}
		tb.execute(j)
	}
}

// getWork blocks until a job is available or the backend stops.
func (tb *ThreadedBackend) getWork(stopCh <-chan struct{}) (*Job, bool) {
	for {
		select {
		case <-stopCh:
			return nil, false
		default:
		}

		if j, ok := tb.queue.Pop(); ok {
			tb.metricQueued.Add(-1)
			return j, true
		}

		select {
		case <-tb.signal:
			continue
		case <-stopCh:
			return nil, false
		}
	}
}

// execute runs j and every increment it yields on the calling goroutine.
func (tb *ThreadedBackend) execute(j *Job) {
	tb.metricActive.Add(1)
	defer func() {
		tb.metricActive.Add(-1)
		tb.metricCompleted.Add(1)
	}()

	t := &trampoline{job: j}
	j.start(t)
	t.drain()
}

// trampoline turns Steps increments into a loop instead of recursion.
type trampoline struct {
	job  *Job
	next []func()
}

func (t *trampoline) Yield(next func()) {
	t.next = append(t.next, next)
}

func (t *trampoline) drain() {
	for len(t.next) > 0 {
		fn := t.next[0]
		t.next[0] = nil
		t.next = t.next[1:]
		t.job.guard(fn)
	}
}

// ID returns the ID of the backend
func (tb *ThreadedBackend) ID() string {
	return tb.id
}

// Name implements Backend.
func (tb *ThreadedBackend) Name() string {
	return tb.id
}

// Capability implements Backend.
func (tb *ThreadedBackend) Capability() Capability {
	return CapabilityThreaded
}

// IsRunning returns whether the backend is running
func (tb *ThreadedBackend) IsRunning() bool {
	tb.runningMu.RLock()
	defer tb.runningMu.RUnlock()
	return tb.running
}

// WorkerCount returns the number of workers
func (tb *ThreadedBackend) WorkerCount() int {
	return tb.workers
}

func (tb *ThreadedBackend) QueuedJobCount() int { return int(tb.metricQueued.Load()) }
func (tb *ThreadedBackend) ActiveJobCount() int { return int(tb.metricActive.Load()) }

// Stats returns a snapshot of the backend's counters.
func (tb *ThreadedBackend) Stats() BackendStats {
	return BackendStats{
		ID:         tb.id,
		Capability: CapabilityThreaded,
		Workers:    tb.workers,
		Queued:     tb.QueuedJobCount(),
		Active:     tb.ActiveJobCount(),
		Completed:  tb.metricCompleted.Load(),
		Rejected:   tb.metricRejected.Load(),
		Running:    tb.IsRunning(),
	}
}
