//go:build js && wasm

package core

import (
	"sync/atomic"
	"syscall/js"
)

// JSHost posts turns onto the browser event loop with setTimeout(fn, 0).
// Turns run inside JavaScript callbacks, so they must never block: a blocked
// callback stalls the page's only thread.
type JSHost struct {
	setTimeout js.Value
	closed     atomic.Bool
}

var _ Host = (*JSHost)(nil)

// NewJSHost binds to the global setTimeout.
func NewJSHost() *JSHost {
	return &JSHost{setTimeout: js.Global().Get("setTimeout")}
}

// Post schedules fn as a macrotask.
func (h *JSHost) Post(fn func()) error {
	if h.closed.Load() {
		return ErrHostClosed
	}

	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	h.setTimeout.Invoke(cb, 0)
	return nil
}

// Close rejects further posts. Already scheduled callbacks still fire.
func (h *JSHost) Close() {
	h.closed.Store(true)
}

// IsClosed reports whether Close was called.
func (h *JSHost) IsClosed() bool {
	return h.closed.Load()
}
