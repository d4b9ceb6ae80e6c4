package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is told about panics recovered by the bridge: panics inside
// work (on the backend's context) and panics inside completion callbacks
// (on the UI context). The panic is converted into a Failure either way;
// the handler is for reporting only.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task or its callback panics.
	//
	// Parameters:
	// - ctx: The task context (carries the task id)
	// - bridgeName: The name of the bridge that owns the task
	// - taskName: The diagnostic name of the task
	// - panicInfo: The panic value recovered
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, bridgeName string, taskName string, panicInfo any, stackTrace []byte)
}

// NilPanicHandler ignores panics; the Failure outcome is the report.
type NilPanicHandler struct{}

// HandlePanic is a no-op.
func (h *NilPanicHandler) HandlePanic(ctx context.Context, bridgeName string, taskName string, panicInfo any, stackTrace []byte) {
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting bridge metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast; RecordTaskPanic is called from
// backend goroutines, everything else from the UI context.
type Metrics interface {
	// RecordTaskSpawned records an accepted spawn.
	RecordTaskSpawned(bridgeName string)

	// RecordTaskDelivered records a dispatched outcome and how long the
	// work ran before producing it.
	RecordTaskDelivered(bridgeName string, kind Kind, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(bridgeName string, panicInfo any)

	// RecordPending records the current pending-task count.
	RecordPending(bridgeName string, pending int)

	// RecordTaskRejected records a spawn that failed synchronously.
	RecordTaskRejected(bridgeName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskSpawned(bridgeName string) {}
func (m *NilMetrics) RecordTaskDelivered(bridgeName string, kind Kind, duration time.Duration) {
}
func (m *NilMetrics) RecordTaskPanic(bridgeName string, panicInfo any)    {}
func (m *NilMetrics) RecordPending(bridgeName string, pending int)        {}
func (m *NilMetrics) RecordTaskRejected(bridgeName string, reason string) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected spawns
// =============================================================================

// RejectedTaskHandler is called when Spawn fails synchronously:
// - The bridge or backend is shut down
// - The pending-task bound is reached
//
// It runs on the UI context, before the task's own callback is invoked
// with the Failure.
type RejectedTaskHandler interface {
	HandleRejectedTask(bridgeName string, taskName string, reason error)
}

// NilRejectedTaskHandler ignores rejections.
type NilRejectedTaskHandler struct{}

// HandleRejectedTask is a no-op.
func (h *NilRejectedTaskHandler) HandleRejectedTask(bridgeName string, taskName string, reason error) {
}

// =============================================================================
// BridgeConfig: Configuration for Bridge
// =============================================================================

// DefaultMaxPending bounds in-flight tasks when BridgeConfig.MaxPending is unset.
const DefaultMaxPending = 256

// BridgeConfig holds configuration options for a Bridge.
// All handlers are optional; if not provided, no-op implementations are used.
type BridgeConfig struct {
	// Name labels the bridge in stats, metrics and logs. Defaults to the bridge id.
	Name string

	// MaxPending is the maximum number of spawned tasks whose outcome has not
	// been dispatched yet. Defaults to DefaultMaxPending.
	MaxPending int

	// HistoryCapacity is the size of the delivered-task ring buffer.
	HistoryCapacity int

	// Redraw is the UI context's redraw trigger. Optional for headless use.
	Redraw *RedrawTrigger

	PanicHandler        PanicHandler
	Metrics             Metrics
	RejectedTaskHandler RejectedTaskHandler
	Logger              Logger
}

// DefaultBridgeConfig returns a config with default handlers.
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		MaxPending:          DefaultMaxPending,
		HistoryCapacity:     defaultHistoryCapacity,
		PanicHandler:        &NilPanicHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &NilRejectedTaskHandler{},
		Logger:              NewNoOpLogger(),
	}
}
