// Package taskbridge lets an interactive client run background work the same
// way on a native multi-threaded process and on a single-threaded cooperative
// runtime such as WebAssembly in a browser.
//
// Application code spawns a unit of work from the UI context. The work runs
// off the UI path on whichever backend the platform supports, and its outcome
// comes back to the UI context through a per-frame Poll, together with a
// redraw request.
//
// # Quick Start
//
// Create a bridge once, when the UI starts:
//
//	redraw := taskbridge.NewRedrawTrigger(requestFrame)
//	b, err := taskbridge.NewBridge(taskbridge.Options{
//		Config: &taskbridge.BridgeConfig{Redraw: redraw},
//	})
//	defer b.Shutdown()
//
// Spawn work and handle its outcome:
//
//	taskbridge.Spawn(b, taskbridge.Func(loadPage), func(o taskbridge.Outcome[*Page]) {
//		if o.IsSuccess() {
//			show(o.Value)
//		}
//	})
//
// Call Poll from the frame loop; it is the only place callbacks run:
//
//	func onFrame() {
//		b.Poll()
//		render()
//	}
//
// # Key Concepts
//
// Task: built with Func (a plain call; may block on the threaded backend
// only), Async (one host-driven asynchronous operation) or Steps (non-blocking
// increments). Sleep and SpawnWithTimeout compose timeouts.
//
// Outcome: exactly one of Success(V), Failure(error) or Cancelled is
// delivered per spawned task, exactly once. Panics inside work become
// Failure(*PanicError).
//
// Backend: ThreadedBackend uses a worker-goroutine pool; CooperativeBackend
// posts each increment as a host turn (setTimeout in the browser, LoopHost
// natively). The backend is chosen once, from the platform capability.
//
// Cancellation: TaskHandle.Cancel is advisory. It is honored before work
// starts, before every Steps increment, and wherever work calls Checkpoint or
// watches its context.
//
// # Thread Safety
//
// Spawn, Poll, Drain and Shutdown belong to the UI context. The outcome
// channel is the only structure shared with the backends; the pending-task
// table is owned by the UI context and is never locked.
package taskbridge
