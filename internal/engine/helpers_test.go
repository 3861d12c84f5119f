package engine

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/roach88/loginflow/internal/action"
)

// kinds is a minimal state: the kinds committed so far.
type kinds []action.Kind

func reduceKinds(prev kinds, a action.Action) kinds {
	next := slices.Clone(prev)
	return append(next, a.Kind())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore creates a store over kinds and runs it until the test ends.
func newTestStore(t *testing.T, opts ...Option[kinds]) *Store[kinds] {
	t.Helper()

	opts = append([]Option[kinds]{WithLogger[kinds](discardLogger())}, opts...)
	s := New(kinds{}, reduceKinds, opts...)
	runStore(t, s)
	return s
}

func runStore[S any](t *testing.T, s *Store[S]) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-errc:
		case <-time.After(2 * time.Second):
			t.Error("store did not stop")
		}
	})
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ListenerPanicsValue reads the process-wide listener panic counter.
func ListenerPanicsValue() float64 {
	return promtestutil.ToFloat64(ListenerPanics)
}
