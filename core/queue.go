package core

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// JobQueue is the FIFO queue feeding the threaded backend's workers.
type JobQueue struct {
	mu   sync.Mutex
	jobs []*Job
}

func NewJobQueue() *JobQueue {
	return &JobQueue{
		jobs: make([]*Job, 0, defaultQueueCap),
	}
}

func (q *JobQueue) Push(j *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, j)
}

func (q *JobQueue) Pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}

	j := q.jobs[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	q.maybeCompactLocked()

	return j, true
}

func (q *JobQueue) maybeCompactLocked() {
	n := len(q.jobs)
	c := cap(q.jobs)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.jobs = make([]*Job, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*Job, n, newCap)
	copy(newSlice, q.jobs)
	q.jobs = newSlice
}

func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *JobQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes every queued job and returns them so the caller can
// complete them; a queued job must never vanish.
func (q *JobQueue) Clear() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.jobs
	q.jobs = make([]*Job, 0, defaultQueueCap)
	return drained
}
