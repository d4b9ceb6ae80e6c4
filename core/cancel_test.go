package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// TestCancel_BeforeStart verifies the pre-start checkpoint
// Given: A single worker busy with a blocked task and a second task queued
// When: The queued task is cancelled before it starts
// Then: Its work never runs and it delivers Cancelled
func TestCancel_BeforeStart(t *testing.T) {
	// Arrange
	b, _ := newThreadedBridge(t, 1, nil)
	gate := make(chan struct{})
	if _, err := Spawn(b, gatedTask(gate, 0), nil); err != nil {
		t.Fatalf("Spawn(blocker) error = %v", err)
	}

	var ran atomic.Bool
	var rec outcomeRecorder[int]
	handle, err := Spawn(b, Func(func(ctx context.Context) (int, error) {
		ran.Store(true)
		return 1, nil
	}), rec.record)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	// Act
	handle.Cancel()
	if handle.State() != StateCancelRequested {
		t.Errorf("State() = %v, want %v", handle.State(), StateCancelRequested)
	}
	close(gate)
	pollUntil(t, b, func() bool { return rec.count() == 1 })

	// Assert
	if !rec.outcomes[0].IsCancelled() {
		t.Errorf("outcome = %v, want Cancelled", rec.outcomes[0])
	}
	if !errors.Is(rec.outcomes[0].Err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", rec.outcomes[0].Err)
	}
	if ran.Load() {
		t.Error("cancelled work should not have run")
	}
	if handle.State() != StateDelivered {
		t.Errorf("State() = %v, want %v", handle.State(), StateDelivered)
	}
}

// TestCancel_AfterPush verifies a produced outcome is not overwritten
// Given: A task whose outcome is already in the outcome channel
// When: Cancel is called before Poll
// Then: The original Success is delivered once
func TestCancel_AfterPush(t *testing.T) {
	// Arrange
	b, _ := newThreadedBridge(t, 1, nil)
	var rec outcomeRecorder[int]
	handle, err := Spawn(b, Func(func(ctx context.Context) (int, error) {
		return 5, nil
	}), rec.record)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	waitFor(t, func() bool { return b.channel.Len() == 1 })

	// Act
	handle.Cancel()
	b.Poll()
	b.Poll()

	// Assert
	if rec.count() != 1 {
		t.Fatalf("callback count = %d, want 1", rec.count())
	}
	if !rec.outcomes[0].IsSuccess() || rec.outcomes[0].Value != 5 {
		t.Errorf("outcome = %v, want Success(5)", rec.outcomes[0])
	}

	// Cancel after delivery is a no-op.
	handle.Cancel()
	if handle.State() != StateDelivered {
		t.Errorf("State() = %v, want %v", handle.State(), StateDelivered)
	}
}

// TestCancel_StepsCheckpoint verifies incremental work stops at a checkpoint
func TestCancel_StepsCheckpoint(t *testing.T) {
	// Arrange
	b, _ := newThreadedBridge(t, 1, nil)
	var steps atomic.Int64
	var rec outcomeRecorder[int]
	handle, err := Spawn(b, Steps(func(ctx context.Context) (int, bool, error) {
		steps.Add(1)
		return 0, false, nil
	}), rec.record)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	waitFor(t, func() bool { return steps.Load() > 10 })

	// Act
	handle.Cancel()
	pollUntil(t, b, func() bool { return rec.count() == 1 })

	// Assert
	if !rec.outcomes[0].IsCancelled() {
		t.Errorf("outcome = %v, want Cancelled", rec.outcomes[0])
	}
}

// TestCancel_ContextAware verifies context-aware work observes Cancel
func TestCancel_ContextAware(t *testing.T) {
	b, _ := newThreadedBridge(t, 1, nil)
	started := make(chan struct{})
	var rec outcomeRecorder[string]

	handle, err := Spawn(b, Func(func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}), rec.record)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	<-started

	handle.Cancel()
	pollUntil(t, b, func() bool { return rec.count() == 1 })

	if !rec.outcomes[0].IsCancelled() {
		t.Errorf("outcome = %v, want Cancelled", rec.outcomes[0])
	}
}

// TestCancel_IgnoredByWork verifies work may finish despite a cancel request
func TestCancel_IgnoredByWork(t *testing.T) {
	b, _ := newThreadedBridge(t, 1, nil)
	started := make(chan struct{})
	gate := make(chan struct{})
	var rec outcomeRecorder[int]

	handle, err := Spawn(b, Func(func(ctx context.Context) (int, error) {
		close(started)
		<-gate
		return 9, nil
	}), rec.record)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	<-started

	handle.Cancel()
	close(gate)
	pollUntil(t, b, func() bool { return rec.count() == 1 })

	if !rec.outcomes[0].IsSuccess() || rec.outcomes[0].Value != 9 {
		t.Errorf("outcome = %v, want Success(9)", rec.outcomes[0])
	}
}

// TestCheckpoint verifies the context helpers
func TestCheckpoint(t *testing.T) {
	if err := Checkpoint(context.Background()); err != nil {
		t.Errorf("Checkpoint(background) = %v, want nil", err)
	}
	if _, ok := CurrentTaskID(context.Background()); ok {
		t.Error("CurrentTaskID(background) should report false")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	token := newCancelToken(cancel)
	ctx = withTask(ctx, 77, token)

	if id, ok := CurrentTaskID(ctx); !ok || id != 77 {
		t.Errorf("CurrentTaskID() = %v, %v; want 77, true", id, ok)
	}
	if IsCancelled(ctx) {
		t.Error("IsCancelled() before Cancel")
	}

	token.Cancel()
	token.Cancel()

	if !errors.Is(Checkpoint(ctx), ErrCancelled) {
		t.Errorf("Checkpoint() = %v, want ErrCancelled", Checkpoint(ctx))
	}
	if ctx.Err() == nil {
		t.Error("task context should be cancelled with the token")
	}
}

// TestTaskHandle_NilCancel verifies Cancel on a nil handle is safe
func TestTaskHandle_NilCancel(t *testing.T) {
	var h *TaskHandle
	h.Cancel()
}
