package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loginflow/internal/action"
)

func TestStore_SeqStampsEveryCommit(t *testing.T) {
	rec := &memRecorder{}
	s := newTestStore(t, WithRecorder[kinds](rec))
	ctx := testContext(t)

	assert.Equal(t, int64(0), s.Seq(), "no commit yet")

	for _, a := range []action.Action{
		action.LoginRequest{},
		action.LoginSuccess{UserID: "admin"},
		action.FriendsRequest{},
	} {
		require.NoError(t, s.Dispatch(ctx, a))
	}

	entries := rec.all()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, int64(3), s.Seq())
}

func TestStore_WithClock_ContinuesFromStart(t *testing.T) {
	rec := &memRecorder{}
	s := newTestStore(t,
		WithClock[kinds](NewClockAt(41)),
		WithRecorder[kinds](rec),
	)

	require.NoError(t, s.Dispatch(testContext(t), action.LoginRequest{}))

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(42), entries[0].Seq)
	assert.Equal(t, int64(42), s.Seq())
}

func TestStore_SeqStrictlyIncreasingUnderConcurrentDispatch(t *testing.T) {
	rec := &memRecorder{}
	s := newTestStore(t, WithRecorder[kinds](rec))
	ctx := testContext(t)

	const dispatchers = 50
	var wg sync.WaitGroup
	for i := 0; i < dispatchers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Dispatch(ctx, action.FriendsRequest{}))
		}()
	}
	wg.Wait()

	entries := rec.all()
	require.Len(t, entries, dispatchers)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].Seq+1, entries[i].Seq, "commit order is seq order")
	}
	assert.Equal(t, int64(dispatchers), s.Seq())
}
