package core

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestRedrawTrigger_Coalesces verifies at most one primitive call per Ack
func TestRedrawTrigger_Coalesces(t *testing.T) {
	var calls atomic.Int32
	r := NewRedrawTrigger(func() { calls.Add(1) })

	r.Request()
	r.Request()
	r.Request()
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
	if !r.Outstanding() {
		t.Error("Outstanding() = false with an unacknowledged request")
	}

	r.Ack()
	r.Request()
	if calls.Load() != 2 {
		t.Errorf("calls after Ack = %d, want 2", calls.Load())
	}

	stats := r.Stats()
	if stats.Requested != 4 || stats.Fired != 2 || stats.Dropped != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

// TestRedrawTrigger_ConcurrentRequests verifies concurrent callers fire once
func TestRedrawTrigger_ConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	r := NewRedrawTrigger(func() { calls.Add(1) })

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Request()
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if r.Stats().Requested != 64 {
		t.Errorf("Requested = %d, want 64", r.Stats().Requested)
	}
}

// TestRedrawTrigger_CloseDropsSilently verifies post-teardown requests are ignored
func TestRedrawTrigger_CloseDropsSilently(t *testing.T) {
	var calls atomic.Int32
	r := NewRedrawTrigger(func() { calls.Add(1) })

	r.Close()
	r.Close()
	r.Request()

	if calls.Load() != 0 {
		t.Errorf("calls after Close = %d, want 0", calls.Load())
	}
	if !r.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if r.Stats().Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", r.Stats().Dropped)
	}
}

// TestRedrawTrigger_NilSafe verifies a nil trigger is a valid headless trigger
func TestRedrawTrigger_NilSafe(t *testing.T) {
	var r *RedrawTrigger
	r.Request()
	r.Ack()
	r.Close()
	if r.Outstanding() {
		t.Error("nil trigger reports an outstanding request")
	}

	headless := NewRedrawTrigger(nil)
	headless.Request()
	if headless.Stats().Fired != 1 {
		t.Errorf("Fired = %d, want 1", headless.Stats().Fired)
	}
}
