package effects

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/state"
)

// DefaultFriendsError is the friends failure message when the server gives
// none.
const DefaultFriendsError = "Fetching friends failed"

// FetchFriends loads the friend list using the credential held in the auth
// slice.
//
// On 2xx it dispatches FriendsSuccess with the body's "friends" objects (an
// absent list reads as empty). On 401 it dispatches FriendsFailure then
// LoginFailure with the same message. Any other failure dispatches
// FriendsFailure only.
func FetchFriends(req remote.Requester, ep Endpoints) engine.Thunk[state.Tree] {
	return func(ctx context.Context, d engine.Dispatcher[state.Tree]) error {
		lc := newLifecycle(d, EffectFriends)
		if err := lc.begin(ctx, action.FriendsRequest{}); err != nil {
			return err
		}

		credential := d.GetState().Auth.CredentialHash
		url := ep.FriendsURL()

		start := time.Now()
		resp, err := req.Do(ctx, remote.Request{URL: url, Header: remote.BasicAuthHeader(credential)})
		EffectLatency.WithLabelValues(EffectFriends).Observe(time.Since(start).Seconds())

		if err != nil {
			slog.Warn("friends request failed",
				"url", url,
				"flow", engine.FlowFrom(ctx),
				"error", err,
			)
			return lc.settle(ctx, OutcomeTransport, action.FriendsFailure{Error: DefaultFriendsError})
		}

		if resp.Unauthorized() {
			msg := errorMessage(resp.Body, DefaultFriendsError)
			slog.Info("friends unauthorized, invalidating login",
				"url", url,
				"flow", engine.FlowFrom(ctx),
			)
			return lc.settle(ctx, OutcomeUnauthorized,
				action.FriendsFailure{Error: msg},
				action.LoginFailure{Error: msg},
			)
		}

		if !resp.OK() {
			slog.Info("friends rejected",
				"url", url,
				"status", resp.Status,
				"flow", engine.FlowFrom(ctx),
			)
			return lc.settle(ctx, OutcomeFailure, action.FriendsFailure{
				Error: errorMessage(resp.Body, DefaultFriendsError),
			})
		}

		return lc.settle(ctx, OutcomeSuccess, action.NewFriendsSuccess(toFriends(resp.Body.Objects("friends"))))
	}
}

func toFriends(objs []map[string]any) []action.Friend {
	out := make([]action.Friend, len(objs))
	for i, o := range objs {
		out[i] = action.Friend(o)
	}
	return out
}
