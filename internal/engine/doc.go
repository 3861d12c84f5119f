// Package engine implements the single-writer store.
//
// The store owns one value of state and changes it only by applying a
// reducer to (state, Action). It accepts two kinds of input:
//
//   - Dispatch(ctx, action): a plain Action, reduced and committed.
//   - DispatchThunk(ctx, thunk): a deferred procedure, run with the store's
//     own Dispatch and GetState, returning a Task that settles when the
//     procedure returns.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Actions are enqueued to a FIFO queue and applied by Run() in a single
// goroutine. This ensures:
//   - Reducers never run concurrently
//   - Listeners run after the new state is committed, never during reduction
//   - A thunk's dispatches commit in the order the thunk issued them
//
// Commit Flow:
//  1. Dispatch enqueues the action and blocks until it is committed
//  2. Run() dequeues one action at a time
//  3. next = reduce(state, action); the snapshot is published atomically
//  4. The commit is stamped with a logical seq and handed to the Recorder
//  5. Every listener is invoked, in subscription order
//  6. Dispatch returns
//
// GetState() reads the last published snapshot and is safe from any
// goroutine. The state value itself is owned by the Run goroutine; there is
// no lock around it.
//
// Listeners run on the Run goroutine. A listener that calls Dispatch would
// wait on itself; listeners submit follow-up actions with Post, or start
// follow-up work with DispatchThunk.
//
// There is no cancellation of in-flight thunks and no deduplication: two
// concurrent thunks for the same operation both run to completion and the
// one whose terminal action commits last wins.
package engine
