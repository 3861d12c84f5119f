package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/journal"
)

// Reducer computes the next state from the previous state and an action.
// It must be pure and must return prev unchanged for actions it does not
// handle.
type Reducer[S any] func(prev S, a action.Action) S

// Dispatcher is the capability set handed to a running thunk.
type Dispatcher[S any] interface {
	Dispatch(ctx context.Context, a action.Action) error
	DispatchThunk(ctx context.Context, t Thunk[S]) *Task
	GetState() S
}

// Thunk is a deferred side-effect procedure. It receives the store's bound
// dispatch and state access, may dispatch any number of actions, and its
// return value settles the Task that DispatchThunk returned.
type Thunk[S any] func(ctx context.Context, d Dispatcher[S]) error

// Recorder receives every committed action. *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithFlowGenerator sets the generator used for dispatches whose context
// carries no flow token. Default: UUIDv7Generator.
func WithFlowGenerator[S any](gen FlowTokenGenerator) Option[S] {
	return func(s *Store[S]) {
		s.flowGen = gen
	}
}

// WithClock sets the sequencer that stamps commits. Default: NewClock().
func WithClock[S any](clock Sequencer) Option[S] {
	return func(s *Store[S]) {
		s.clock = clock
	}
}

// WithRecorder journals every committed action.
func WithRecorder[S any](r Recorder) Option[S] {
	return func(s *Store[S]) {
		s.recorder = r
	}
}

// WithLogger sets the store's logger. Default: slog.Default().
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(s *Store[S]) {
		s.logger = logger
	}
}

// Store is a single-writer state container.
//
// All reducer applications and listener notifications happen on the Run
// goroutine, one action at a time, in the order actions were enqueued.
// Readers on other goroutines see the last committed snapshot through
// GetState.
//
// Thread-safety model:
//   - Dispatch, Post, DispatchThunk, GetState, Subscribe: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Listeners: run on the Run goroutine; they submit actions with Post
type Store[S any] struct {
	reduce    Reducer[S]
	state     atomic.Pointer[S]
	clock     Sequencer
	flowGen   FlowTokenGenerator
	recorder  Recorder
	logger    *slog.Logger
	queue     *jobQueue
	listeners listenerSet
	running   atomic.Bool
	thunks    sync.WaitGroup
}

// New creates a store holding initial. Call Run to start committing.
func New[S any](initial S, reduce Reducer[S], opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		reduce:  reduce,
		clock:   NewClock(),
		flowGen: UUIDv7Generator{},
		logger:  slog.Default(),
		queue:   newJobQueue(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state.Store(&initial)
	return s
}

// Run starts the single-writer loop. It blocks until ctx is cancelled or
// Stop is called.
//
// After Stop, actions already queued are still committed before Run
// returns nil. On ctx cancellation, queued actions are failed with
// ErrStopped and Run returns ctx.Err().
//
// ERROR HANDLING: recorder failures and listener panics are logged and
// processing continues. A failed journal write never rolls back a commit.
func (s *Store[S]) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return &RuntimeError{Code: ErrCodeAlreadyRunning, Message: "store is already running"}
	}
	defer s.running.Store(false)

	s.logger.Info("store starting")

	for {
		j, ok := s.queue.TryDequeue()
		if ok {
			s.apply(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("store stopping: context cancelled")
			s.queue.Close()
			s.fail(s.queue.Drain())
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel is closed by Stop, so this case fires
			// immediately once the queue is closed.
			if s.queue.closedAndEmpty() {
				s.logger.Info("store stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Dispatches made after Stop fail with ErrStopped;
// Run commits what was already queued and returns.
func (s *Store[S]) Stop() {
	s.queue.Close()
}

// GetState returns the last committed snapshot.
func (s *Store[S]) GetState() S {
	return *s.state.Load()
}

// Seq returns the seq of the last commit, 0 before the first.
func (s *Store[S]) Seq() int64 {
	return s.clock.Current()
}

// Len returns the number of actions waiting to be committed.
func (s *Store[S]) Len() int {
	return s.queue.Len()
}

// Dispatch submits a plain action and blocks until it is committed and
// every listener has run.
//
// The action carries the flow token in ctx (see WithFlow), or a fresh one.
// If ctx is done first, Dispatch returns ctx.Err(); the action stays
// queued and may still be committed.
func (s *Store[S]) Dispatch(ctx context.Context, a action.Action) error {
	j, err := s.enqueue(ctx, a)
	if err != nil {
		return err
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post submits a plain action without waiting for it to be committed.
// It is the form listeners use: a listener runs on the Run goroutine, so a
// Dispatch from inside one could only return once ctx is done.
func (s *Store[S]) Post(ctx context.Context, a action.Action) error {
	_, err := s.enqueue(ctx, a)
	return err
}

func (s *Store[S]) enqueue(ctx context.Context, a action.Action) (job, error) {
	flow := FlowFrom(ctx)
	if a == nil {
		return job{}, &RuntimeError{Code: ErrCodeNilAction, Message: "dispatch of nil action", FlowToken: flow}
	}
	if flow == "" {
		flow = s.flowGen.Generate()
	}

	j := newJob(a, flow)
	if !s.queue.Enqueue(j) {
		return job{}, NewStoppedError(flow)
	}
	return j, nil
}

// DispatchThunk starts t on a new goroutine and returns its Task.
//
// The thunk runs under a flow token taken from ctx or freshly generated,
// and every action it dispatches through its Dispatcher inherits it.
// A panic inside t settles the task with a THUNK_PANIC RuntimeError.
func (s *Store[S]) DispatchThunk(ctx context.Context, t Thunk[S]) *Task {
	flow := FlowFrom(ctx)
	if flow == "" {
		flow = s.flowGen.Generate()
		ctx = WithFlow(ctx, flow)
	}

	task := newTask(flow)
	if t == nil {
		task.settle(&RuntimeError{Code: ErrCodeNilThunk, Message: "dispatch of nil thunk", FlowToken: flow})
		return task
	}

	s.thunks.Add(1)
	go func() {
		defer s.thunks.Done()

		start := time.Now()
		err := s.runThunk(ctx, flow, t)
		ThunkDuration.Observe(time.Since(start).Seconds())

		task.settle(err)
	}()

	return task
}

// WaitThunks blocks until every thunk started so far has settled, or ctx
// is done.
func (s *Store[S]) WaitThunks(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.thunks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers l to run after every commit, in subscription order.
// The returned function unsubscribes; calling it more than once is a
// no-op.
func (s *Store[S]) Subscribe(l Listener) func() {
	id := s.listeners.add(l)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.listeners.remove(id)
		})
	}
}

func (s *Store[S]) runThunk(ctx context.Context, flow string, t Thunk[S]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ThunksSettled.WithLabelValues(OutcomePanic).Inc()
			s.logger.Error("thunk panicked",
				"flow", flow,
				"panic", fmt.Sprint(r),
			)
			err = NewThunkPanicError(flow, r)
		}
	}()

	err = t(ctx, s)
	if err != nil {
		ThunksSettled.WithLabelValues(OutcomeError).Inc()
		s.logger.Debug("thunk settled", "flow", flow, "error", err)
		return err
	}

	ThunksSettled.WithLabelValues(OutcomeOK).Inc()
	s.logger.Debug("thunk settled", "flow", flow)
	return nil
}

// apply commits one action.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (s *Store[S]) apply(ctx context.Context, j job) {
	prev := s.state.Load()
	next := s.reduce(*prev, j.action)
	s.state.Store(&next)

	seq := s.clock.Next()
	ActionsCommitted.WithLabelValues(string(j.action.Kind())).Inc()

	s.logger.Debug("action committed",
		"kind", j.action.Kind(),
		"flow", j.flow,
		"seq", seq,
	)

	s.record(ctx, j, seq)
	s.notify(j)

	j.done <- nil
}

func (s *Store[S]) record(ctx context.Context, j job, seq int64) {
	if s.recorder == nil {
		return
	}

	entry, err := journal.NewEntry(j.flow, j.action, seq)
	if err == nil {
		err = s.recorder.Record(ctx, entry)
	}
	if err != nil {
		s.logger.Error("journal write failed",
			"kind", j.action.Kind(),
			"flow", j.flow,
			"seq", seq,
			"error", err,
		)
	}
}

// notify runs every listener for one commit. A panicking listener is
// logged and skipped; the rest still run.
func (s *Store[S]) notify(j job) {
	for _, l := range s.listeners.snapshot() {
		s.callListener(j, l)
	}
}

func (s *Store[S]) callListener(j job, l listenerEntry) {
	defer func() {
		if r := recover(); r != nil {
			ListenerPanics.Inc()
			s.logger.Error("listener panicked",
				"listener", l.id,
				"kind", j.action.Kind(),
				"error", NewListenerPanicError(j.flow, r),
			)
		}
	}()

	ListenerNotifications.Inc()
	l.fn()
}

// fail releases dispatchers whose actions will never be committed.
func (s *Store[S]) fail(jobs []job) {
	for _, j := range jobs {
		j.done <- NewStoppedError(j.flow)
	}
}
