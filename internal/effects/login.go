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

// DefaultLoginError is the login failure message when the server gives none.
const DefaultLoginError = "Log in failed"

// Login authenticates username/password against the login endpoint.
//
// On 2xx it dispatches LoginSuccess with the encoded credential and the
// body's "user" field. Otherwise, including transport failures, it
// dispatches LoginFailure.
func Login(req remote.Requester, ep Endpoints, username, password string) engine.Thunk[state.Tree] {
	return func(ctx context.Context, d engine.Dispatcher[state.Tree]) error {
		lc := newLifecycle(d, EffectLogin)
		if err := lc.begin(ctx, action.LoginRequest{}); err != nil {
			return err
		}

		credential := remote.BasicCredential(username, password)
		url := ep.LoginURL()

		start := time.Now()
		resp, err := req.Do(ctx, remote.Request{URL: url, Header: remote.BasicAuthHeader(credential)})
		EffectLatency.WithLabelValues(EffectLogin).Observe(time.Since(start).Seconds())

		if err != nil {
			slog.Warn("login request failed",
				"url", url,
				"flow", engine.FlowFrom(ctx),
				"error", err,
			)
			return lc.settle(ctx, OutcomeTransport, action.LoginFailure{Error: DefaultLoginError})
		}

		if !resp.OK() {
			slog.Info("login rejected",
				"url", url,
				"status", resp.Status,
				"flow", engine.FlowFrom(ctx),
			)
			return lc.settle(ctx, OutcomeFailure, action.LoginFailure{
				Error: errorMessage(resp.Body, DefaultLoginError),
			})
		}

		return lc.settle(ctx, OutcomeSuccess, action.LoginSuccess{
			CredentialHash: credential,
			UserID:         resp.Body.String("user"),
		})
	}
}
