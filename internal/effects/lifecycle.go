package effects

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/state"
)

// ErrAlreadySettled is returned when a lifecycle tries to dispatch a
// second terminal outcome.
var ErrAlreadySettled = errors.New("lifecycle already settled")

// lifecycle guards one request: begin dispatches the request Action, settle
// dispatches the terminal outcome at most once.
type lifecycle struct {
	d       engine.Dispatcher[state.Tree]
	effect  string
	settled atomic.Bool
}

func newLifecycle(d engine.Dispatcher[state.Tree], effect string) *lifecycle {
	return &lifecycle{d: d, effect: effect}
}

func (l *lifecycle) begin(ctx context.Context, pending action.Action) error {
	return l.d.Dispatch(ctx, pending)
}

// settle dispatches outcome in order as the single terminal step.
func (l *lifecycle) settle(ctx context.Context, outcome string, actions ...action.Action) error {
	if !l.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}

	EffectOutcomes.WithLabelValues(l.effect, outcome).Inc()
	for _, a := range actions {
		if err := l.d.Dispatch(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// errorMessage returns the body's "error" field, or fallback when it is
// missing or empty.
func errorMessage(body remote.Body, fallback string) string {
	if msg := body.String("error"); msg != "" {
		return msg
	}
	return fallback
}
