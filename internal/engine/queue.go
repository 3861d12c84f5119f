package engine

import (
	"sync"

	"github.com/roach88/loginflow/internal/action"
)

// job is one pending dispatch. done receives exactly one value: nil once
// the action is committed and listeners have run, or an error if the store
// stopped before applying it.
type job struct {
	action action.Action
	flow   string
	done   chan error
}

func newJob(a action.Action, flow string) job {
	return job{action: a, flow: flow, done: make(chan error, 1)}
}

// jobQueue is a thread-safe FIFO of pending dispatches.
//
// The queue is unbounded so a thunk's completion can always enqueue without
// waiting on the Run loop. Enqueue is safe from any goroutine; only Run
// dequeues.
//
// A buffered signal channel lets Run wait for work and for context
// cancellation in the same select.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds j to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, j)

	// Coalesce: one pending signal is enough to wake Run.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front job without blocking.
func (q *jobQueue) TryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}

	j := q.jobs[0]
	// Clear the slot so the backing array does not pin the action.
	q.jobs[0] = job{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}

	return j, true
}

// Wait returns a channel that signals when jobs may be available.
// It is closed by Close.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting jobs and wakes Run. Jobs already queued remain
// available to TryDequeue.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// closedAndEmpty reports whether the queue is closed with nothing left.
func (q *jobQueue) closedAndEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.jobs) == 0
}

// Drain removes every pending job and returns them.
func (q *jobQueue) Drain() []job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := q.jobs
	q.jobs = nil
	return jobs
}
