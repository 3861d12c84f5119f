package effects

import (
	"context"

	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/state"
)

// LoginAndFetch logs in and, if that leaves the session authenticated,
// fetches friends. Both steps share the caller's flow token.
func LoginAndFetch(req remote.Requester, ep Endpoints, username, password string) engine.Thunk[state.Tree] {
	return func(ctx context.Context, d engine.Dispatcher[state.Tree]) error {
		if err := d.DispatchThunk(ctx, Login(req, ep, username, password)).Wait(ctx); err != nil {
			return err
		}

		if !d.GetState().Auth.IsAuthenticated {
			return nil
		}

		return d.DispatchThunk(ctx, FetchFriends(req, ep)).Wait(ctx)
	}
}
