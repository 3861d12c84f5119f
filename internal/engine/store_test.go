package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/journal"
)

func TestStore_GetState_Initial(t *testing.T) {
	s := New(kinds{action.KindLoginRequest}, reduceKinds)
	assert.Equal(t, kinds{action.KindLoginRequest}, s.GetState())
	assert.Equal(t, int64(0), s.Seq())
}

func TestStore_Dispatch_CommitsBeforeReturn(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	assert.Equal(t, kinds{action.KindLoginRequest}, s.GetState())
	assert.Equal(t, int64(1), s.Seq())
}

func TestStore_Dispatch_FIFO(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	require.NoError(t, s.Dispatch(ctx, action.LoginSuccess{UserID: "admin"}))
	require.NoError(t, s.Dispatch(ctx, action.FriendsRequest{}))

	assert.Equal(t, kinds{
		action.KindLoginRequest,
		action.KindLoginSuccess,
		action.KindFriendsRequest,
	}, s.GetState())
	assert.Equal(t, int64(3), s.Seq())
}

func TestStore_Dispatch_NilAction(t *testing.T) {
	s := newTestStore(t)

	err := s.Dispatch(testContext(t), nil)
	require.Error(t, err)

	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeNilAction, re.Code)
	assert.Empty(t, s.GetState())
}

func TestStore_Dispatch_ContextDone(t *testing.T) {
	// Not running: nothing commits, so Dispatch waits on ctx.
	s := New(kinds{}, reduceKinds, WithLogger[kinds](discardLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Dispatch(ctx, action.LoginRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Stop_RejectsLaterDispatch(t *testing.T) {
	s := newTestStore(t)
	s.Stop()

	err := s.Dispatch(testContext(t), action.LoginRequest{})
	assert.True(t, IsStopped(err))
}

func TestStore_Stop_CommitsQueued(t *testing.T) {
	s := New(kinds{}, reduceKinds, WithLogger[kinds](discardLogger()))
	ctx := testContext(t)

	errs := make(chan error, 2)
	go func() { errs <- s.Dispatch(ctx, action.LoginRequest{}) }()
	require.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, time.Millisecond)

	s.Stop()
	require.NoError(t, s.Run(ctx))

	assert.NoError(t, <-errs)
	assert.Equal(t, kinds{action.KindLoginRequest}, s.GetState())
}

func TestStore_Run_CancelReleasesDispatchers(t *testing.T) {
	s := New(kinds{}, reduceKinds, WithLogger[kinds](discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)

	err := s.Dispatch(context.Background(), action.LoginRequest{})
	assert.True(t, IsStopped(err))
}

func TestStore_Fail_ReleasesQueuedJobs(t *testing.T) {
	s := New(kinds{}, reduceKinds, WithLogger[kinds](discardLogger()))

	j := newJob(action.LoginRequest{}, "flow-q")
	require.True(t, s.queue.Enqueue(j))

	s.fail(s.queue.Drain())

	err := <-j.done
	require.True(t, IsStopped(err))
	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "flow-q", re.FlowToken)
}

func TestStore_Run_Twice(t *testing.T) {
	s := newTestStore(t)
	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, time.Millisecond)

	err := s.Run(context.Background())
	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeAlreadyRunning, re.Code)
}

func TestStore_Subscribe_NotifiedAfterCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	var seen []kinds
	s.Subscribe(func() {
		seen = append(seen, s.GetState())
	})

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	require.NoError(t, s.Dispatch(ctx, action.LoginFailure{Error: "nope"}))

	require.Len(t, seen, 2)
	assert.Equal(t, kinds{action.KindLoginRequest}, seen[0])
	assert.Equal(t, kinds{action.KindLoginRequest, action.KindLoginFailure}, seen[1])
}

func TestStore_Subscribe_IdentityStillNotifies(t *testing.T) {
	identity := func(prev int, _ action.Action) int { return prev }
	s := New(7, identity, WithLogger[int](discardLogger()))
	runStore(t, s)

	calls := 0
	s.Subscribe(func() { calls++ })

	require.NoError(t, s.Dispatch(testContext(t), action.FriendsRequest{}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 7, s.GetState())
}

func TestStore_Subscribe_Order(t *testing.T) {
	s := newTestStore(t)

	var order []string
	s.Subscribe(func() { order = append(order, "first") })
	s.Subscribe(func() { order = append(order, "second") })
	s.Subscribe(func() { order = append(order, "third") })

	require.NoError(t, s.Dispatch(testContext(t), action.LoginRequest{}))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestStore_Unsubscribe_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })
	other := 0
	s.Subscribe(func() { other++ })

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestStore_Post_FromListener(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	var postErr error
	posted := false
	s.Subscribe(func() {
		if posted {
			return
		}
		posted = true
		postErr = s.Post(ctx, action.LoginSuccess{UserID: "admin"})
	})

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	require.NoError(t, postErr)
	require.NoError(t, s.Dispatch(ctx, action.FriendsRequest{}))

	assert.Equal(t, kinds{action.KindLoginRequest, action.KindLoginSuccess, action.KindFriendsRequest}, s.GetState())
}

func TestStore_Post_Errors(t *testing.T) {
	s := New(kinds{}, reduceKinds, WithLogger[kinds](discardLogger()))
	ctx := testContext(t)

	var re *RuntimeError
	require.True(t, errors.As(s.Post(ctx, nil), &re))
	assert.Equal(t, ErrCodeNilAction, re.Code)

	s.Stop()
	assert.True(t, IsStopped(s.Post(ctx, action.LoginRequest{})))
}

func TestStore_DispatchFromListener_ReturnsOnContextDone(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	var dispatchErr error
	fired := false
	s.Subscribe(func() {
		if fired {
			return
		}
		fired = true
		inner, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		dispatchErr = s.Dispatch(inner, action.LoginSuccess{UserID: "admin"})
	})

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	assert.ErrorIs(t, dispatchErr, context.DeadlineExceeded)

	// The action stayed queued and commits once the listener returns.
	require.NoError(t, s.Dispatch(ctx, action.FriendsRequest{}))
	assert.Equal(t, kinds{action.KindLoginRequest, action.KindLoginSuccess, action.KindFriendsRequest}, s.GetState())
}

func TestStore_ListenerPanic_OthersStillRun(t *testing.T) {
	s := newTestStore(t)

	before := ListenerPanicsValue()
	ran := false
	s.Subscribe(func() { panic("boom") })
	s.Subscribe(func() { ran = true })

	require.NoError(t, s.Dispatch(testContext(t), action.LoginRequest{}))
	assert.True(t, ran)
	assert.Equal(t, before+1, ListenerPanicsValue())
	assert.Equal(t, kinds{action.KindLoginRequest}, s.GetState())
}

func TestStore_DispatchThunk_SettlesWithResult(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	task := s.DispatchThunk(ctx, func(ctx context.Context, d Dispatcher[kinds]) error {
		if err := d.Dispatch(ctx, action.LoginRequest{}); err != nil {
			return err
		}
		return d.Dispatch(ctx, action.LoginSuccess{UserID: "admin"})
	})

	require.NoError(t, task.Wait(ctx))
	assert.Equal(t, kinds{action.KindLoginRequest, action.KindLoginSuccess}, s.GetState())
}

func TestStore_DispatchThunk_ReturnsError(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	want := errors.New("side effect failed")
	task := s.DispatchThunk(ctx, func(context.Context, Dispatcher[kinds]) error {
		return want
	})

	assert.ErrorIs(t, task.Wait(ctx), want)
	assert.ErrorIs(t, task.Err(), want)
}

func TestStore_DispatchThunk_ZeroDispatches(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	task := s.DispatchThunk(ctx, func(context.Context, Dispatcher[kinds]) error { return nil })
	require.NoError(t, task.Wait(ctx))
	assert.Empty(t, s.GetState())
}

func TestStore_DispatchThunk_Panic(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	task := s.DispatchThunk(ctx, func(context.Context, Dispatcher[kinds]) error {
		panic("kaboom")
	})

	err := task.Wait(ctx)
	require.Error(t, err)
	assert.True(t, IsThunkPanic(err))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestStore_DispatchThunk_Nil(t *testing.T) {
	s := newTestStore(t)

	task := s.DispatchThunk(testContext(t), nil)

	var re *RuntimeError
	require.True(t, errors.As(task.Err(), &re))
	assert.Equal(t, ErrCodeNilThunk, re.Code)
}

func TestStore_DispatchThunk_FlowPropagation(t *testing.T) {
	rec := &memRecorder{}
	s := newTestStore(t,
		WithFlowGenerator[kinds](NewFixedGenerator("flow-outer")),
		WithRecorder[kinds](rec),
	)
	ctx := testContext(t)

	task := s.DispatchThunk(ctx, func(ctx context.Context, d Dispatcher[kinds]) error {
		if err := d.Dispatch(ctx, action.LoginRequest{}); err != nil {
			return err
		}
		inner := d.DispatchThunk(ctx, func(ctx context.Context, d Dispatcher[kinds]) error {
			return d.Dispatch(ctx, action.FriendsRequest{})
		})
		return inner.Wait(ctx)
	})

	require.NoError(t, task.Wait(ctx))
	assert.Equal(t, "flow-outer", task.Flow())

	entries := rec.all()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "flow-outer", e.FlowToken)
	}
}

func TestStore_DispatchThunk_ReadsState(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))

	var observed kinds
	task := s.DispatchThunk(ctx, func(ctx context.Context, d Dispatcher[kinds]) error {
		observed = d.GetState()
		return nil
	})
	require.NoError(t, task.Wait(ctx))
	assert.Equal(t, kinds{action.KindLoginRequest}, observed)
}

func TestStore_WaitThunks(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		s.DispatchThunk(ctx, func(ctx context.Context, d Dispatcher[kinds]) error {
			<-release
			return d.Dispatch(ctx, action.FriendsRequest{})
		})
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitThunks(short), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.WaitThunks(ctx))
	assert.Len(t, s.GetState(), 3)
}

func TestStore_Recorder_StampsSeq(t *testing.T) {
	rec := &memRecorder{}
	s := newTestStore(t,
		WithRecorder[kinds](rec),
		WithClock[kinds](NewClockAt(100)),
	)
	ctx := WithFlow(testContext(t), "flow-1")

	require.NoError(t, s.Dispatch(ctx, action.LoginRequest{}))
	require.NoError(t, s.Dispatch(ctx, action.LoginFailure{Error: "Log in failed"}))

	entries := rec.all()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(101), entries[0].Seq)
	assert.Equal(t, int64(102), entries[1].Seq)
	assert.Equal(t, action.KindLoginFailure, entries[1].Kind)
	assert.Equal(t, `{"error":"Log in failed"}`, entries[1].Payload)
}

func TestStore_Recorder_FailureDoesNotBlockCommit(t *testing.T) {
	s := newTestStore(t, WithRecorder[kinds](failingRecorder{}))

	require.NoError(t, s.Dispatch(testContext(t), action.LoginRequest{}))
	assert.Equal(t, kinds{action.KindLoginRequest}, s.GetState())
}

func TestStore_Recorder_Journal(t *testing.T) {
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	s := newTestStore(t,
		WithRecorder[kinds](j),
		WithFlowGenerator[kinds](NewFixedGenerator("flow-j")),
	)
	ctx := testContext(t)

	require.NoError(t, s.Dispatch(ctx, action.FriendsRequest{}))

	entries, err := j.ReadFlow(ctx, "flow-j")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, action.KindFriendsRequest, entries[0].Kind)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := newTestStore(t)
	ctx := testContext(t)

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Dispatch(ctx, action.FriendsRequest{}))
		}()
	}
	wg.Wait()

	assert.Len(t, s.GetState(), goroutines)
	assert.Equal(t, int64(goroutines), s.Seq())
}

type memRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (r *memRecorder) Record(_ context.Context, e journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memRecorder) all() []journal.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]journal.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, journal.Entry) error {
	return errors.New("disk full")
}
