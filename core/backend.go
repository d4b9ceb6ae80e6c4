package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"
)

// Capability tells the bridge which execution substrate is available.
// It is supplied once at startup by platform detection.
type Capability int

const (
	// CapabilityThreaded: true parallel goroutines; work may block.
	CapabilityThreaded Capability = iota
	// CapabilityCooperative: a single host thread driven by callback turns;
	// work must never block.
	CapabilityCooperative
)

func (c Capability) String() string {
	switch c {
	case CapabilityThreaded:
		return "threaded"
	case CapabilityCooperative:
		return "cooperative"
	default:
		return "unknown"
	}
}

// ParseCapability parses "threaded" or "cooperative".
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "threaded", "native", "thread":
		return CapabilityThreaded, nil
	case "cooperative", "coop", "wasm":
		return CapabilityCooperative, nil
	default:
		return 0, fmt.Errorf("unknown backend capability %q", s)
	}
}

// =============================================================================
// Backend: the platform-selected strategy that runs work off the UI context
// =============================================================================

// Backend runs jobs and reports each job's outcome exactly once through the
// job's completion hook. Implementations differ only in where the work runs.
type Backend interface {
	// Run submits j. It never blocks on the work itself. It returns
	// ErrBackendClosed if the backend no longer accepts work, in which case
	// the job is not completed by the backend.
	Run(j *Job) error

	// Start prepares the backend; calling it twice is a no-op.
	Start(ctx context.Context)

	// Shutdown stops accepting work and completes every queued job that never
	// started with ErrBackendClosed. Work already running finishes normally.
	Shutdown()

	Name() string
	Capability() Capability
	Stats() BackendStats
}

// =============================================================================
// Job: one submitted task as seen by a backend
// =============================================================================

// Job is the backend-side view of a spawned task.
type Job struct {
	ID   TaskID
	Name string

	ctx     context.Context
	release context.CancelFunc
	token   *CancelToken
	run     unit

	// onResult hands the finished entry to the bridge. deliver wraps it with
	// backend-specific routing (the cooperative backend re-posts to its host).
	onResult func(Entry)
	deliver  func(Entry)
	onPanic  func(j *Job, value any, stack []byte)

	startedAt time.Time
	finished  atomic.Bool
}

// NewJob builds a standalone job. The bridge builds its jobs internally;
// this is for driving a Backend directly.
func NewJob(parent context.Context, name string, run func(ctx context.Context) (any, error), onResult func(Entry)) *Job {
	id := GenerateTaskID()
	ctx, cancel := context.WithCancel(parent)
	token := newCancelToken(cancel)
	return &Job{
		ID:      id,
		Name:    name,
		ctx:     withTask(ctx, id, token),
		release: cancel,
		token:   token,
		run: func(ctx context.Context, _ Yielder, done func(any, error)) {
			v, err := run(ctx)
			done(v, err)
		},
		onResult: onResult,
	}
}

// Cancel requests advisory cancellation of the job.
func (j *Job) Cancel() { j.token.Cancel() }

// Token returns the job's cancellation token.
func (j *Job) Token() *CancelToken { return j.token }

// Finished reports whether the job has produced its outcome.
func (j *Job) Finished() bool { return j.finished.Load() }

// start runs the first increment: the pre-start cancellation checkpoint,
// then the work itself under panic recovery.
func (j *Job) start(y Yielder) {
	j.startedAt = time.Now()
	if j.token.Cancelled() {
		j.finish(nil, ErrCancelled)
		return
	}
	j.guard(func() {
		j.run(j.ctx, y, j.finish)
	})
}

// guard runs one increment and converts a panic into a Failure.
func (j *Job) guard(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := debug.Stack()
			if j.onPanic != nil {
				j.onPanic(j, rec, stack)
			}
			j.finish(nil, &PanicError{Value: rec, Stack: stack})
		}
	}()
	fn()
}

// finish produces the job's single outcome. Later calls are ignored.
func (j *Job) finish(v any, err error) {
	if !j.finished.CompareAndSwap(false, true) {
		return
	}

	entry := Entry{
		ID:         j.ID,
		StartedAt:  j.startedAt,
		FinishedAt: time.Now(),
		res:        classify(j.token, v, err),
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = entry.FinishedAt
	}
	if j.release != nil {
		j.release()
	}

	switch {
	case j.deliver != nil:
		j.deliver(entry)
	case j.onResult != nil:
		j.onResult(entry)
	}
}

// abort completes a job that never started.
func (j *Job) abort(err error) {
	j.finish(nil, err)
}

func classify(token *CancelToken, v any, err error) result {
	switch {
	case err == nil:
		return result{kind: KindSuccess, value: v}
	case errors.Is(err, ErrCancelled):
		return result{kind: KindCancelled, err: ErrCancelled}
	case errors.Is(err, context.Canceled) && token != nil && token.Cancelled():
		return result{kind: KindCancelled, err: ErrCancelled}
	default:
		return result{kind: KindFailure, err: err}
	}
}
