package core

import "time"

// TaskExecutionRecord captures a delivered task.
type TaskExecutionRecord struct {
	TaskID      TaskID
	Name        string
	BridgeName  string
	Backend     string
	Outcome     Kind
	StartedAt   time.Time
	FinishedAt  time.Time
	DeliveredAt time.Time
	Duration    time.Duration
	Panicked    bool
}

// BridgeStats represents runtime observability state for a bridge.
type BridgeStats struct {
	ID         string
	Name       string
	Backend    string
	Capability Capability

	Pending   int
	Buffered  int
	Spawned   int64
	Delivered int64
	Succeeded int64
	Failed    int64
	Cancelled int64
	Panicked  int64
	Rejected  int64
	Closed    bool

	LastTaskName string
	LastTaskAt   time.Time

	Redraw RedrawStats
}

// BackendStats represents runtime observability state for an execution backend.
type BackendStats struct {
	ID         string
	Capability Capability
	Workers    int
	Queued     int
	Active     int
	Completed  int64
	Rejected   int64
	Turns      int64
	Running    bool
}
