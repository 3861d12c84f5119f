package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/loginflow/internal/effects"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/state"
)

// RequestResult is the output of the one-shot commands.
type RequestResult struct {
	Flow  string     `json:"flow"`
	State state.Tree `json:"state"`
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in once and print the final state",
		Long: `Dispatch login(username, password) against the configured server,
wait for it to settle and print the resulting state tree.

Exit codes:
  0 - Authenticated
  1 - Login ended in login.failure
  2 - Command error (bad config, journal not writable, etc.)

Examples:
  loginflow login
  loginflow login --user admin --password secret --format json
  loginflow login --endpoint http://localhost:8080 --db ./loginflow.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, rootOpts, func(s *session) engine.Thunk[state.Tree] {
				cfg := rootOpts.Config
				return effects.Login(s.requester, s.endpoints, cfg.Credentials.Username, cfg.Credentials.Password)
			}, loginOutcome)
		},
	}

	addRemoteFlags(cmd)
	return cmd
}

// NewFriendsCommand creates the friends command.
func NewFriendsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Log in, fetch friends and print the final state",
		Long: `Log in, then fetch the friend list with the stored credential.
Both requests share one flow token. A 401 on friends also logs the
session out.

Exit codes:
  0 - Friends fetched
  1 - Login or friends ended in a failure action
  2 - Command error

Examples:
  loginflow friends
  loginflow friends --friends-path api/friends --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, rootOpts, func(s *session) engine.Thunk[state.Tree] {
				cfg := rootOpts.Config
				return effects.LoginAndFetch(s.requester, s.endpoints, cfg.Credentials.Username, cfg.Credentials.Password)
			}, friendsOutcome)
		},
	}

	addRemoteFlags(cmd)
	return cmd
}

// addRemoteFlags defines the flags bound to remote, credential and journal
// config keys. Their defaults come from config.
func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("endpoint", "", "server base URL (remote.base_url)")
	cmd.Flags().String("login-path", "", "login path under the base URL (remote.login_path)")
	cmd.Flags().String("friends-path", "", "friends path under the base URL (remote.friends_path)")
	cmd.Flags().String("user", "", "username (credentials.username)")
	cmd.Flags().String("password", "", "password (credentials.password)")
	cmd.Flags().String("db", "", "SQLite journal path (journal.path)")
}

// runRequest runs one thunk in a fresh session, prints the final state and
// maps a failed outcome to ExitFailure.
func runRequest(
	cmd *cobra.Command,
	opts *RootOptions,
	build func(*session) engine.Thunk[state.Tree],
	outcome func(state.Tree) error,
) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}

	task := s.store.DispatchThunk(ctx, build(s))
	runErr := task.Wait(ctx)
	if err := s.close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return WrapExitError(ExitCommandError, "store error", runErr)
	}

	final := s.store.GetState()
	if err := opts.formatter(cmd).Success(RequestResult{Flow: task.Flow(), State: final}); err != nil {
		return err
	}
	return outcome(final)
}

func loginOutcome(t state.Tree) error {
	if t.Auth.IsAuthenticated {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("login failed: %s", t.Auth.Error))
}

func friendsOutcome(t state.Tree) error {
	if !t.Auth.IsAuthenticated && t.Friends.Error == "" {
		return loginOutcome(t)
	}
	if t.Friends.Error != "" {
		return NewExitError(ExitFailure, fmt.Sprintf("fetching friends failed: %s", t.Friends.Error))
	}
	return nil
}
