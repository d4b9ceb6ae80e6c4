package core

import (
	"sync"
	"time"
)

const defaultChannelCap = 16

// Entry is one delivered outcome waiting for the UI context.
type Entry struct {
	ID         TaskID
	StartedAt  time.Time
	FinishedAt time.Time

	res result
}

// Kind returns the outcome tag of the entry.
func (e Entry) Kind() Kind { return e.res.kind }

// Err returns the failure or cancellation error of the entry, if any.
func (e Entry) Err() error { return e.res.err }

// OutcomeChannel carries outcomes from the execution backends to the UI
// context. It is the only structure touched from more than one context.
// Push never blocks the producer beyond a short critical section and Drain
// never blocks the consumer.
type OutcomeChannel struct {
	mu      sync.Mutex
	entries []Entry
}

// NewOutcomeChannel creates an empty channel.
func NewOutcomeChannel() *OutcomeChannel {
	return &OutcomeChannel{
		entries: make([]Entry, 0, defaultChannelCap),
	}
}

// Push appends one entry. Safe from any goroutine or host turn.
func (c *OutcomeChannel) Push(e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Drain returns every buffered entry in push order and empties the buffer.
// Call only from the UI context.
func (c *OutcomeChannel) Drain() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return nil
	}

	batch := c.entries
	// batch now belongs to the caller; producers append to a fresh buffer.
	c.entries = make([]Entry, 0, max(defaultChannelCap, cap(batch)/2))
	return batch
}

// Len returns the number of buffered entries.
func (c *OutcomeChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
