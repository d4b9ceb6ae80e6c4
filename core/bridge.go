package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const drainPollInterval = 5 * time.Millisecond

// pendingTask is the UI-side record of a spawned task.
type pendingTask struct {
	handle    *TaskHandle
	name      string
	spawnedAt time.Time
	dispatch  func(Entry)
}

// Bridge is the application-facing façade. It is created by the UI context,
// and Spawn, Poll, Drain and Shutdown must be called from that context only.
// Stats, PendingCount and RecentTasks are safe from anywhere.
//
// Outcomes produced on the backend are pushed to the outcome channel and a
// redraw is requested; the next Poll dispatches them to their callbacks.
type Bridge struct {
	id      string
	name    string
	backend Backend
	channel *OutcomeChannel
	redraw  *RedrawTrigger

	// pending is owned by the UI context and needs no lock.
	pending      map[TaskID]*pendingTask
	pendingCount atomic.Int32
	maxPending   int

	closed atomic.Bool

	history *ring[TaskExecutionRecord]

	panicHandler    PanicHandler
	metrics         Metrics
	rejectedHandler RejectedTaskHandler
	logger          Logger

	spawned   atomic.Int64
	delivered atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64
	panicked  atomic.Int64
	rejected  atomic.Int64
}

// NewBridge creates a bridge on top of backend and starts the backend.
// A nil config uses DefaultBridgeConfig.
func NewBridge(backend Backend, config *BridgeConfig) *Bridge {
	if config == nil {
		config = DefaultBridgeConfig()
	}

	id := uuid.NewString()
	b := &Bridge{
		id:              id,
		name:            config.Name,
		backend:         backend,
		channel:         NewOutcomeChannel(),
		redraw:          config.Redraw,
		pending:         make(map[TaskID]*pendingTask),
		maxPending:      config.MaxPending,
		history:         newRing[TaskExecutionRecord](config.HistoryCapacity),
		panicHandler:    config.PanicHandler,
		metrics:         config.Metrics,
		rejectedHandler: config.RejectedTaskHandler,
		logger:          config.Logger,
	}

	if b.name == "" {
		b.name = "bridge-" + id[:8]
	}
	if b.maxPending <= 0 {
		b.maxPending = DefaultMaxPending
	}
	if b.panicHandler == nil {
		b.panicHandler = &NilPanicHandler{}
	}
	if b.metrics == nil {
		b.metrics = &NilMetrics{}
	}
	if b.rejectedHandler == nil {
		b.rejectedHandler = &NilRejectedTaskHandler{}
	}
	if b.logger == nil {
		b.logger = NewNoOpLogger()
	}

	backend.Start(context.Background())
	b.logger.Info("bridge started",
		F("bridge", b.name),
		F("backend", backend.Name()),
		F("capability", backend.Capability().String()),
		F("max_pending", b.maxPending))
	return b
}

// NewBackend builds the backend matching capability. workers applies to the
// threaded backend; host is required for the cooperative one.
func NewBackend(capability Capability, workers int, host Host) (Backend, error) {
	switch capability {
	case CapabilityThreaded:
		return NewThreadedBackend("threaded", workers), nil
	case CapabilityCooperative:
		if host == nil {
			return nil, fmt.Errorf("cooperative backend requires a host")
		}
		return NewCooperativeBackend("cooperative", host), nil
	default:
		return nil, fmt.Errorf("unknown backend capability %d", capability)
	}
}

// Spawn submits task and returns immediately. onComplete is invoked exactly
// once, on the UI context, from a later Poll.
//
// If submission fails (the bridge is shut down, or MaxPending tasks are
// already pending) Spawn returns (nil, err) and also invokes onComplete
// synchronously with Failure(err). This is the only case in which
// onComplete runs inside Spawn. err wraps ErrSubmission.
//
// A nil onComplete discards the outcome when it arrives.
func Spawn[V any](b *Bridge, task Task[V], onComplete func(Outcome[V])) (*TaskHandle, error) {
	name := task.name
	if name == "" {
		name = "anonymous"
	}

	fail := func(err error) (*TaskHandle, error) {
		b.reject(name, err)
		if onComplete != nil {
			onComplete(Failure[V](err))
		}
		return nil, err
	}

	if task.run == nil {
		return fail(fmt.Errorf("%w: empty task", ErrSubmission))
	}
	if err := b.admit(); err != nil {
		return fail(err)
	}

	id := GenerateTaskID()
	ctx, cancel := context.WithCancel(context.Background())
	token := newCancelToken(cancel)
	handle := newTaskHandle(id, name, token)

	j := &Job{
		ID:       id,
		Name:     name,
		ctx:      withTask(ctx, id, token),
		release:  cancel,
		token:    token,
		run:      task.run,
		onResult: b.push,
		onPanic:  b.workPanicked,
	}

	b.pending[id] = &pendingTask{
		handle:    handle,
		name:      name,
		spawnedAt: time.Now(),
		dispatch: func(e Entry) {
			if onComplete != nil {
				onComplete(typed[V](e.res))
			}
		},
	}
	b.pendingCount.Add(1)

	if err := b.backend.Run(j); err != nil {
		delete(b.pending, id)
		b.pendingCount.Add(-1)
		cancel()
		return fail(err)
	}

	b.spawned.Add(1)
	b.metrics.RecordTaskSpawned(b.name)
	b.metrics.RecordPending(b.name, b.PendingCount())
	b.logger.Debug("task spawned", F("bridge", b.name), F("task_id", id.String()), F("task", name))
	return handle, nil
}

func (b *Bridge) admit() error {
	if b.closed.Load() {
		return ErrBackendClosed
	}
	if int(b.pendingCount.Load()) >= b.maxPending {
		return ErrOverloaded
	}
	return nil
}

func (b *Bridge) reject(name string, err error) {
	b.rejected.Add(1)
	b.metrics.RecordTaskRejected(b.name, rejectReason(err))
	b.rejectedHandler.HandleRejectedTask(b.name, name, err)
}

func rejectReason(err error) string {
	switch err {
	case ErrOverloaded:
		return "overloaded"
	case ErrBackendClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// push runs on the backend's context.
func (b *Bridge) push(e Entry) {
	b.channel.Push(e)
	b.redraw.Request()
}

// workPanicked runs on the backend's context before the panic is turned
// into a Failure.
func (b *Bridge) workPanicked(j *Job, value any, stack []byte) {
	b.panicked.Add(1)
	b.metrics.RecordTaskPanic(b.name, value)
	b.panicHandler.HandlePanic(j.ctx, b.name, j.Name, value, stack)
}

// Poll acknowledges the redraw trigger, drains the outcome channel and runs
// the callback of every delivered task, in completion order. It returns the
// number of callbacks dispatched. Call it once per frame from the UI context.
func (b *Bridge) Poll() int {
	b.redraw.Ack()

	batch := b.channel.Drain()
	if len(batch) == 0 {
		return 0
	}

	n := 0
	for _, e := range batch {
		p, ok := b.pending[e.ID]
		if !ok {
			continue
		}
		delete(b.pending, e.ID)
		b.pendingCount.Add(-1)
		p.handle.markDelivered()

		b.record(p, e)
		b.dispatch(p, e)
		n++
	}

	b.metrics.RecordPending(b.name, b.PendingCount())
	return n
}

func (b *Bridge) record(p *pendingTask, e Entry) {
	now := time.Now()
	kind := e.Kind()

	b.delivered.Add(1)
	switch kind {
	case KindSuccess:
		b.succeeded.Add(1)
	case KindCancelled:
		b.cancelled.Add(1)
	default:
		b.failed.Add(1)
	}

	duration := e.FinishedAt.Sub(e.StartedAt)
	b.history.put(TaskExecutionRecord{
		TaskID:      e.ID,
		Name:        p.name,
		BridgeName:  b.name,
		Backend:     b.backend.Name(),
		Outcome:     kind,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
		DeliveredAt: now,
		Duration:    duration,
		Panicked:    IsPanic(e.Err()),
	})
	b.metrics.RecordTaskDelivered(b.name, kind, duration)
}

// dispatch runs one callback. A panicking callback is reported and does not
// stop the rest of the batch.
func (b *Bridge) dispatch(p *pendingTask, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			b.panicHandler.HandlePanic(context.Background(), b.name, p.name, r, debug.Stack())
		}
	}()
	p.dispatch(e)
}

// Drain polls until no task is pending or ctx ends. It blocks the calling
// goroutine, so it is for native shutdown paths only: on a cooperative host
// running in the browser it would stall the page.
func (b *Bridge) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		b.Poll()
		if b.PendingCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown stops accepting spawns and shuts the backend down. Work that was
// queued but never started completes with Failure(ErrBackendClosed); running
// work finishes normally. Both are delivered by later Poll calls.
func (b *Bridge) Shutdown() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.backend.Shutdown()
	b.logger.Info("bridge shut down",
		F("bridge", b.name),
		F("pending", b.PendingCount()))
}

// IsClosed reports whether Shutdown was called.
func (b *Bridge) IsClosed() bool { return b.closed.Load() }

// ID returns the bridge instance id.
func (b *Bridge) ID() string { return b.id }

// Name returns the bridge's diagnostic name.
func (b *Bridge) Name() string { return b.name }

// Backend returns the execution backend selected at construction.
func (b *Bridge) Backend() Backend { return b.backend }

// Redraw returns the bridge's redraw trigger, which may be nil.
func (b *Bridge) Redraw() *RedrawTrigger { return b.redraw }

// PendingCount returns the number of spawned tasks not yet dispatched.
func (b *Bridge) PendingCount() int { return int(b.pendingCount.Load()) }

// RecentTasks returns up to limit delivered tasks, newest first.
func (b *Bridge) RecentTasks(limit int) []TaskExecutionRecord {
	return b.history.newest(limit)
}

// Stats returns a snapshot of the bridge's counters.
func (b *Bridge) Stats() BridgeStats {
	stats := BridgeStats{
		ID:         b.id,
		Name:       b.name,
		Backend:    b.backend.Name(),
		Capability: b.backend.Capability(),
		Pending:    b.PendingCount(),
		Buffered:   b.channel.Len(),
		Spawned:    b.spawned.Load(),
		Delivered:  b.delivered.Load(),
		Succeeded:  b.succeeded.Load(),
		Failed:     b.failed.Load(),
		Cancelled:  b.cancelled.Load(),
		Panicked:   b.panicked.Load(),
		Rejected:   b.rejected.Load(),
		Closed:     b.closed.Load(),
	}
	if last, ok := b.history.last(); ok {
		stats.LastTaskName = last.Name
		stats.LastTaskAt = last.DeliveredAt
	}
	if b.redraw != nil {
		stats.Redraw = b.redraw.Stats()
	}
	return stats
}
