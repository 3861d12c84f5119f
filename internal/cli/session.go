package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/loginflow/internal/config"
	"github.com/roach88/loginflow/internal/effects"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/journal"
	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/state"
)

// session is a running store wired to its journal and requester.
type session struct {
	store     *engine.Store[state.Tree]
	journal   *journal.Journal
	requester remote.Requester
	endpoints effects.Endpoints

	cancel context.CancelFunc
	runErr chan error
}

// openSession opens the journal and starts the store loop.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := opts.Config

	slog.Debug("opening journal", "path", cfg.Journal.Path)
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}

	flowGen := opts.FlowGenerator
	if flowGen == nil {
		flowGen = engine.UUIDv7Generator{}
	}

	requester := opts.Requester
	if requester == nil {
		requester = remote.NewHTTPClient(nil, slog.Default())
	}

	st := engine.New(state.Initial(), state.Root,
		engine.WithFlowGenerator[state.Tree](flowGen),
		engine.WithRecorder[state.Tree](j),
		engine.WithLogger[state.Tree](slog.Default()),
	)

	runCtx, cancel := context.WithCancel(ctx)
	s := &session{
		store:     st,
		journal:   j,
		requester: requester,
		endpoints: endpointsFrom(cfg),
		cancel:    cancel,
		runErr:    make(chan error, 1),
	}
	go func() { s.runErr <- st.Run(runCtx) }()

	return s, nil
}

// run dispatches t and waits for it to settle.
func (s *session) run(ctx context.Context, t engine.Thunk[state.Tree]) error {
	return s.store.DispatchThunk(ctx, t).Wait(ctx)
}

// close drains the store, then closes the journal.
func (s *session) close() error {
	s.store.Stop()
	err := <-s.runErr
	s.cancel()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if cerr := s.journal.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close journal: %w", cerr)
	}
	return err
}

func endpointsFrom(cfg config.Config) effects.Endpoints {
	return effects.Endpoints{
		BaseURL:     cfg.Remote.BaseURL,
		LoginPath:   cfg.Remote.LoginPath,
		FriendsPath: cfg.Remote.FriendsPath,
	}
}
