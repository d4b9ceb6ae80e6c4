package core

import (
	"errors"
	"fmt"
)

// ErrSubmission is the root of every error reported synchronously by Spawn.
var ErrSubmission = errors.New("taskbridge: submission failed")

var (
	// ErrOverloaded is reported when the bridge already holds MaxPending tasks.
	ErrOverloaded = fmt.Errorf("%w: too many pending tasks", ErrSubmission)

	// ErrBackendClosed is reported when the bridge or its backend has been shut down.
	// Work that was queued but never started is also completed with this error.
	ErrBackendClosed = fmt.Errorf("%w: backend closed", ErrSubmission)

	// ErrHostClosed is returned by a Host that no longer accepts turns.
	ErrHostClosed = fmt.Errorf("%w: host closed", ErrBackendClosed)
)

// ErrCancelled is returned by Checkpoint once cancellation was requested.
// Work may return it (or wrap it) to end with a Cancelled outcome.
var ErrCancelled = errors.New("taskbridge: task cancelled")

// ErrTimeout is delivered by SpawnWithTimeout when the timer wins the race.
var ErrTimeout = errors.New("taskbridge: task timed out")

// PanicError carries a panic recovered from a unit of work.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("taskbridge: task panicked: %v", e.Value)
}

// IsPanic reports whether err wraps a recovered panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
