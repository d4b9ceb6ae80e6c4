package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// Host is a single-threaded job queue driven by external callback turns,
// such as the browser event loop. Post queues fn for a later turn and must
// not run it synchronously.
type Host interface {
	Post(fn func()) error
}

// stoppable is implemented by hosts that can be stopped for good.
type stoppable interface {
	IsClosed() bool
}

// CooperativeBackend runs jobs as host turns. There is no parallelism: work
// must not block, it must either finish quickly (Func), be decomposed into
// increments (Steps), or be a single host-driven asynchronous operation
// (Async). Outcomes are handed to the bridge from within a host turn.
type CooperativeBackend struct {
	id   string
	host Host

	closed atomic.Bool

	// notStarted holds jobs posted to the host whose first turn has not run.
	// Whoever removes a job from it (first turn or Shutdown) owns its start.
	mu         sync.Mutex
	notStarted map[TaskID]*Job
	// running holds started jobs that have not produced their outcome.
	running map[TaskID]*Job

	metricActive    atomic.Int32
	metricTurns     atomic.Int64
	metricCompleted atomic.Int64
	metricRejected  atomic.Int64
}

var _ Backend = (*CooperativeBackend)(nil)

// NewCooperativeBackend creates a backend that schedules onto host.
func NewCooperativeBackend(id string, host Host) *CooperativeBackend {
	return &CooperativeBackend{
		id:         id,
		host:       host,
		notStarted: make(map[TaskID]*Job),
		running:    make(map[TaskID]*Job),
	}
}

// Start is a no-op; the host drives execution.
func (cb *CooperativeBackend) Start(ctx context.Context) {}

// Run posts the first turn of j to the host.
func (cb *CooperativeBackend) Run(j *Job) error {
	if cb.closed.Load() {
		cb.metricRejected.Add(1)
		return ErrBackendClosed
	}

	onResult := j.onResult
	j.deliver = func(e Entry) {
		cb.mu.Lock()
		delete(cb.running, j.ID)
		cb.mu.Unlock()
		cb.metricActive.Add(-1)
		cb.metricCompleted.Add(1)
		// Completions arriving from timers or goroutines are routed back
		// through the host so the bridge sees them inside a host turn.
		if err := cb.host.Post(func() { onResult(e) }); err != nil {
			onResult(e)
		}
	}

	cb.mu.Lock()
	cb.notStarted[j.ID] = j
	cb.mu.Unlock()
	cb.metricActive.Add(1)

	if err := cb.host.Post(func() { cb.firstTurn(j) }); err != nil {
		cb.mu.Lock()
		delete(cb.notStarted, j.ID)
		cb.mu.Unlock()
		cb.metricActive.Add(-1)
		cb.metricRejected.Add(1)
		j.deliver = nil
		return ErrBackendClosed
	}
	return nil
}

func (cb *CooperativeBackend) firstTurn(j *Job) {
	if !cb.claim(j) {
		return
	}
	cb.metricTurns.Add(1)
	j.start(&hostYielder{backend: cb, job: j})
}

func (cb *CooperativeBackend) claim(j *Job) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if _, ok := cb.notStarted[j.ID]; !ok {
		return false
	}
	delete(cb.notStarted, j.ID)
	cb.running[j.ID] = j
	return true
}

// Shutdown stops accepting jobs and completes jobs whose first turn has not
// run with ErrBackendClosed. Running jobs keep their host turns while the
// host is alive. When the host has already stopped no turn will ever come,
// so running jobs are completed with ErrBackendClosed as well; Shutdown may
// be called again after stopping the host to do that.
func (cb *CooperativeBackend) Shutdown() {
	first := cb.closed.CompareAndSwap(false, true)
	hostDown := cb.hostClosed()
	if !first && !hostDown {
		return
	}

	cb.mu.Lock()
	orphans := make([]*Job, 0, len(cb.notStarted)+len(cb.running))
	for id, j := range cb.notStarted {
		orphans = append(orphans, j)
		delete(cb.notStarted, id)
	}
	if hostDown {
		for _, j := range cb.running {
			orphans = append(orphans, j)
		}
	}
	cb.mu.Unlock()

	for _, j := range orphans {
		j.abort(ErrBackendClosed)
	}
}

func (cb *CooperativeBackend) hostClosed() bool {
	h, ok := cb.host.(stoppable)
	return ok && h.IsClosed()
}

// hostYielder posts each Steps increment as its own host turn.
type hostYielder struct {
	backend *CooperativeBackend
	job     *Job
}

func (y *hostYielder) Yield(next func()) {
	err := y.backend.host.Post(func() {
		y.backend.metricTurns.Add(1)
		y.job.guard(next)
	})
	if err != nil {
		y.job.finish(nil, ErrBackendClosed)
	}
}

// Name implements Backend.
func (cb *CooperativeBackend) Name() string { return cb.id }

// Capability implements Backend.
func (cb *CooperativeBackend) Capability() Capability { return CapabilityCooperative }

// Stats returns a snapshot of the backend's counters.
func (cb *CooperativeBackend) Stats() BackendStats {
	cb.mu.Lock()
	queued := len(cb.notStarted)
	cb.mu.Unlock()

	return BackendStats{
		ID:         cb.id,
		Capability: CapabilityCooperative,
		Workers:    1,
		Queued:     queued,
		Active:     int(cb.metricActive.Load()),
		Completed:  cb.metricCompleted.Load(),
		Rejected:   cb.metricRejected.Load(),
		Turns:      cb.metricTurns.Load(),
		Running:    !cb.closed.Load(),
	}
}
