package core

import "sync/atomic"

// HandleState is the lifecycle state of a TaskHandle.
type HandleState int32

const (
	StatePending HandleState = iota
	StateCancelRequested
	StateDelivered
)

func (s HandleState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCancelRequested:
		return "cancel_requested"
	case StateDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// TaskHandle represents one in-flight or delivered task. Dropping a handle
// does not cancel the task.
type TaskHandle struct {
	id    TaskID
	name  string
	token *CancelToken
	state atomic.Int32
}

func newTaskHandle(id TaskID, name string, token *CancelToken) *TaskHandle {
	return &TaskHandle{id: id, name: name, token: token}
}

// ID returns the task id.
func (h *TaskHandle) ID() TaskID { return h.id }

// Name returns the diagnostic task name.
func (h *TaskHandle) Name() string { return h.name }

// State returns the current lifecycle state.
func (h *TaskHandle) State() HandleState {
	return HandleState(h.state.Load())
}

// IsPending reports whether the outcome has not been dispatched yet.
func (h *TaskHandle) IsPending() bool {
	return h.State() != StateDelivered
}

// Cancel requests advisory cancellation. The backend honors it at the next
// checkpoint and the task then delivers Cancelled. Once an outcome has been
// produced the request has no effect on it; after delivery it is a no-op.
func (h *TaskHandle) Cancel() {
	if h == nil {
		return
	}
	if h.state.CompareAndSwap(int32(StatePending), int32(StateCancelRequested)) {
		h.token.Cancel()
	}
}

// markDelivered is called once by Poll.
func (h *TaskHandle) markDelivered() {
	h.state.Store(int32(StateDelivered))
}
