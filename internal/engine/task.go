package engine

import (
	"context"
	"sync"
)

// Task is the deferred result of a dispatched thunk. It settles exactly
// once, when the thunk returns.
type Task struct {
	flow string
	done chan struct{}
	once sync.Once
	err  error
}

func newTask(flow string) *Task {
	return &Task{flow: flow, done: make(chan struct{})}
}

// Flow returns the flow token shared by every action the thunk dispatched.
func (t *Task) Flow() string {
	return t.flow
}

// Done is closed when the task settles.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the thunk's error once settled, nil before that.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task settles or ctx is done.
// Cancelling ctx stops the wait, not the thunk.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle records err and releases waiters. Later calls are no-ops and
// report false.
func (t *Task) settle(err error) bool {
	settled := false
	t.once.Do(func() {
		t.err = err
		close(t.done)
		settled = true
	})
	return settled
}
