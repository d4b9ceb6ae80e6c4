package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 3 * time.Second

// newThreadedBridge creates a bridge on a started threaded backend and shuts
// both down when the test ends.
func newThreadedBridge(t *testing.T, workers int, config *BridgeConfig) (*Bridge, *ThreadedBackend) {
	t.Helper()
	backend := NewThreadedBackend("test-threaded", workers)
	b := NewBridge(backend, config)
	t.Cleanup(b.Shutdown)
	return b, backend
}

// newManualBridge creates a bridge on a cooperative backend driven by a
// ManualHost.
func newManualBridge(t *testing.T, config *BridgeConfig) (*Bridge, *ManualHost) {
	t.Helper()
	host := NewManualHost()
	b := NewBridge(NewCooperativeBackend("test-coop", host), config)
	t.Cleanup(b.Shutdown)
	return b, host
}

// pollUntil keeps polling b until cond holds or the test times out.
func pollUntil(t *testing.T, b *Bridge, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v (pending=%d)", waitTimeout, b.PendingCount())
		}
		b.Poll()
		time.Sleep(time.Millisecond)
	}
}

// waitFor waits for cond without polling the bridge.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v", waitTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// gatedTask blocks until gate is closed, then returns value.
func gatedTask[V any](gate <-chan struct{}, value V) Task[V] {
	return Func(func(ctx context.Context) (V, error) {
		<-gate
		return value, nil
	})
}

// outcomeRecorder collects delivered outcomes. It is only touched from the
// test goroutine, which plays the UI context.
type outcomeRecorder[V any] struct {
	outcomes []Outcome[V]
}

func (r *outcomeRecorder[V]) record(o Outcome[V]) {
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder[V]) count() int {
	return len(r.outcomes)
}

// recordingPanicHandler records every reported panic.
type recordingPanicHandler struct {
	mu     sync.Mutex
	values []any
	names  []string
}

func (h *recordingPanicHandler) HandlePanic(ctx context.Context, bridgeName string, taskName string, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, panicInfo)
	h.names = append(h.names, taskName)
}

func (h *recordingPanicHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}
