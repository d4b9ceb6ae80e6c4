package core

import (
	"context"
	"sync/atomic"
)

// CancelToken is the per-task advisory cancellation flag. It is written only
// by the UI context (through TaskHandle.Cancel) and read by the backends.
type CancelToken struct {
	requested atomic.Bool
	cancel    context.CancelFunc
}

func newCancelToken(cancel context.CancelFunc) *CancelToken {
	return &CancelToken{cancel: cancel}
}

// Cancel sets the flag and cancels the task context so context-aware I/O
// can stop early. Repeated calls are no-ops.
func (t *CancelToken) Cancel() {
	if t.requested.CompareAndSwap(false, true) && t.cancel != nil {
		t.cancel()
	}
}

// Cancelled reports whether cancellation was requested.
func (t *CancelToken) Cancelled() bool {
	return t.requested.Load()
}

// =============================================================================
// Context Helper
// =============================================================================

type taskContextKeyType struct{}

var taskContextKey taskContextKeyType

type taskContext struct {
	id    TaskID
	token *CancelToken
}

func withTask(ctx context.Context, id TaskID, token *CancelToken) context.Context {
	return context.WithValue(ctx, taskContextKey, taskContext{id: id, token: token})
}

// Checkpoint returns ErrCancelled if the task running with ctx was asked to
// cancel. Long-running work calls it between units of progress.
func Checkpoint(ctx context.Context) error {
	if IsCancelled(ctx) {
		return ErrCancelled
	}
	return nil
}

// IsCancelled reports whether the task running with ctx was asked to cancel.
func IsCancelled(ctx context.Context) bool {
	if v, ok := ctx.Value(taskContextKey).(taskContext); ok && v.token != nil {
		return v.token.Cancelled()
	}
	return false
}

// CurrentTaskID returns the id of the task running with ctx.
func CurrentTaskID(ctx context.Context) (TaskID, bool) {
	v, ok := ctx.Value(taskContextKey).(taskContext)
	return v.id, ok
}
