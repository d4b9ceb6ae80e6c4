package core

import "sync"

const defaultHistoryCapacity = 100

// ring is a fixed-size buffer that overwrites its oldest element. It is
// written by Poll and read by Stats, which may run on another goroutine.
type ring[T any] struct {
	mu   sync.Mutex
	buf  []T
	next int
	full bool
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) put(v T) {
	r.mu.Lock()
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
}

func (r *ring[T]) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// newest returns up to limit elements, newest first. limit <= 0 means all.
func (r *ring[T]) newest(limit int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.len()
	if n == 0 {
		return nil
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]T, limit)
	i := r.next
	for k := range out {
		i--
		if i < 0 {
			i = len(r.buf) - 1
		}
		out[k] = r.buf[i]
	}
	return out
}

func (r *ring[T]) last() (T, bool) {
	if s := r.newest(1); len(s) == 1 {
		return s[0], true
	}
	var zero T
	return zero, false
}
