package core

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// TaskID identifies one spawned task for the life of the process.
type TaskID uint64

var taskIDCounter atomic.Uint64

// GenerateTaskID returns the next id from the process-wide monotonic counter.
func GenerateTaskID() TaskID {
	return TaskID(taskIDCounter.Add(1))
}

// IsZero reports whether id was never assigned.
func (id TaskID) IsZero() bool {
	return id == 0
}

func (id TaskID) String() string {
	return fmt.Sprintf("task-%d", uint64(id))
}

// Yielder schedules the next increment of a unit of work.
// The threaded backend runs increments in a loop on the same worker;
// the cooperative backend posts each increment as a separate host turn.
type Yielder interface {
	Yield(next func())
}

// unit is the type-erased body of a Task. done may be called at most once
// with effect; later calls are ignored.
type unit func(ctx context.Context, y Yielder, done func(any, error))

// =============================================================================
// Task: an immutable unit of work producing (V, error)
// =============================================================================

// Task is a unit of work built with Func, Async or Steps. It must only use data
// captured at construction time and must never touch UI-owned state.
type Task[V any] struct {
	name string
	run  unit
}

// Named returns a copy of the task carrying a diagnostic name.
func (t Task[V]) Named(name string) Task[V] {
	t.name = name
	return t
}

// Name returns the diagnostic name of the task.
func (t Task[V]) Name() string {
	return t.name
}

// Func wraps a plain call. The call may block only on the threaded backend;
// on the cooperative backend it occupies the host's single thread until it returns.
func Func[V any](fn func(ctx context.Context) (V, error)) Task[V] {
	return Task[V]{
		name: resolveTaskName(fn, ""),
		run: func(ctx context.Context, _ Yielder, done func(any, error)) {
			v, err := fn(ctx)
			done(v, err)
		},
	}
}

// Async wraps a single already-non-blocking operation. start must return
// promptly; complete may be called later from any goroutine or host callback.
// Only the first call to complete has an effect.
func Async[V any](start func(ctx context.Context, complete func(V, error))) Task[V] {
	return Task[V]{
		name: resolveTaskName(start, ""),
		run: func(ctx context.Context, _ Yielder, done func(any, error)) {
			start(ctx, func(v V, err error) {
				done(v, err)
			})
		},
	}
}

// Steps wraps work decomposed into non-blocking increments. step is called
// repeatedly until it reports done or returns an error. A cancellation
// checkpoint runs before every increment.
func Steps[V any](step func(ctx context.Context) (V, bool, error)) Task[V] {
	return Task[V]{
		name: resolveTaskName(step, ""),
		run: func(ctx context.Context, y Yielder, done func(any, error)) {
			var next func()
			next = func() {
				if err := Checkpoint(ctx); err != nil {
					done(nil, err)
					return
				}
				v, finished, err := step(ctx)
				if err != nil {
					done(nil, err)
					return
				}
				if finished {
					done(v, nil)
					return
				}
				y.Yield(next)
			}
			next()
		},
	}
}

// Sleep completes after d. Cancelling the task stops the timer early.
// It never blocks a thread, so it runs on both backends.
func Sleep(d time.Duration) Task[struct{}] {
	return Async(func(ctx context.Context, complete func(struct{}, error)) {
		timer := time.AfterFunc(d, func() {
			complete(struct{}{}, nil)
		})
		context.AfterFunc(ctx, func() {
			if timer.Stop() {
				complete(struct{}{}, ctx.Err())
			}
		})
	}).Named("sleep")
}

// resolveTaskName derives a diagnostic name from the function behind a task:
// "main.fetchTitle" for a named function, "main.main.func1" for a closure.
func resolveTaskName(fn any, explicit string) string {
	if explicit != "" {
		return explicit
	}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil || f.Name() == "" {
		return "anonymous"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
