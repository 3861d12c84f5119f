package effects

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/journal"
	"github.com/roach88/loginflow/internal/state"
)

const testBase = "https://api.test"

func testEndpoints() Endpoints {
	return Endpoints{BaseURL: testBase, LoginPath: "login", FriendsPath: "friends"}
}

// kindRecorder captures the committed kinds in order.
type kindRecorder struct {
	mu    sync.Mutex
	kinds []action.Kind
}

func (r *kindRecorder) Record(_ context.Context, e journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, e.Kind)
	return nil
}

func (r *kindRecorder) Kinds() []action.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]action.Kind(nil), r.kinds...)
}

func newTestStore(t *testing.T, initial state.Tree) (*engine.Store[state.Tree], *kindRecorder) {
	t.Helper()

	rec := &kindRecorder{}
	s := engine.New(initial, state.Root,
		engine.WithRecorder[state.Tree](rec),
		engine.WithLogger[state.Tree](slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})

	return s, rec
}

func authenticated() state.Tree {
	tree := state.Initial()
	tree.Auth = state.AuthState{
		IsAuthenticated: true,
		CredentialHash:  "YWRtaW46c2VjcmV0",
		UserID:          "admin",
	}
	return tree
}

func run(t *testing.T, s *engine.Store[state.Tree], thunk engine.Thunk[state.Tree]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.DispatchThunk(ctx, thunk).Wait(ctx))
}
