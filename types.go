package taskbridge

import (
	"context"
	"time"

	"github.com/mochi-browser/taskbridge/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskbridge package for most use cases.

// Task is an immutable unit of work producing (V, error)
type Task[V any] = core.Task[V]

// Outcome is the tagged result delivered to a completion callback
type Outcome[V any] = core.Outcome[V]

// TaskHandle represents one in-flight or delivered task
type TaskHandle = core.TaskHandle

// TaskID identifies one spawned task
type TaskID = core.TaskID

// Bridge is the UI-context façade for spawning work
type Bridge = core.Bridge

// BridgeConfig holds configuration options for a Bridge
type BridgeConfig = core.BridgeConfig

// Backend runs work off the UI context
type Backend = core.Backend

// Host is a single-threaded, callback-driven job queue
type Host = core.Host

// Capability selects the execution backend
type Capability = core.Capability

// RedrawTrigger asks the UI context to render
type RedrawTrigger = core.RedrawTrigger

// Kind tags an Outcome
type Kind = core.Kind

// PanicError carries a panic recovered from work
type PanicError = core.PanicError

// Capability constants
const (
	CapabilityThreaded    = core.CapabilityThreaded
	CapabilityCooperative = core.CapabilityCooperative
)

// Outcome kinds
const (
	KindSuccess   = core.KindSuccess
	KindFailure   = core.KindFailure
	KindCancelled = core.KindCancelled
)

// Errors
var (
	ErrSubmission    = core.ErrSubmission
	ErrOverloaded    = core.ErrOverloaded
	ErrBackendClosed = core.ErrBackendClosed
	ErrCancelled     = core.ErrCancelled
	ErrTimeout       = core.ErrTimeout
)

// Non-generic helpers
var (
	NewRedrawTrigger    = core.NewRedrawTrigger
	DefaultBridgeConfig = core.DefaultBridgeConfig
	Checkpoint          = core.Checkpoint
	IsCancelled         = core.IsCancelled
	IsPanic             = core.IsPanic
	ParseCapability     = core.ParseCapability
)

// Func wraps a plain call. See core.Func.
func Func[V any](fn func(ctx context.Context) (V, error)) Task[V] {
	return core.Func(fn)
}

// Async wraps a single host-driven asynchronous operation. See core.Async.
func Async[V any](start func(ctx context.Context, complete func(V, error))) Task[V] {
	return core.Async(start)
}

// Steps wraps work decomposed into non-blocking increments. See core.Steps.
func Steps[V any](step func(ctx context.Context) (V, bool, error)) Task[V] {
	return core.Steps(step)
}

// Sleep completes after d. See core.Sleep.
func Sleep(d time.Duration) Task[struct{}] {
	return core.Sleep(d)
}

// Spawn submits task to b. See core.Spawn for the delivery contract.
func Spawn[V any](b *Bridge, task Task[V], onComplete func(Outcome[V])) (*TaskHandle, error) {
	return core.Spawn(b, task, onComplete)
}

// SpawnWithTimeout races task against a timer. See core.SpawnWithTimeout.
func SpawnWithTimeout[V any](b *Bridge, task Task[V], d time.Duration, onComplete func(Outcome[V])) (*TaskHandle, error) {
	return core.SpawnWithTimeout(b, task, d, onComplete)
}
