package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/effects"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/journal"
	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/state"
	"github.com/roach88/loginflow/internal/testutil"
)

// Stub endpoints used by every scenario. Scenario stub paths are relative
// to StubBaseURL.
const (
	StubBaseURL     = "https://stub.test"
	StubLoginPath   = "login"
	StubFriendsPath = "friends"
)

// DefaultTimeout bounds a whole scenario run.
const DefaultTimeout = 10 * time.Second

// Harness holds the per-run collaborators of one scenario.
type Harness struct {
	store   *engine.Store[state.Tree]
	journal *journal.Journal
	stub    *remote.Stub
	clock   *testutil.DeterministicClock
	flowGen *testutil.SequentialFlowGenerator
	logger  *slog.Logger
}

// Endpoints returns the endpoints the harness points effects at.
func Endpoints() effects.Endpoints {
	return effects.Endpoints{
		BaseURL:     StubBaseURL,
		LoginPath:   StubLoginPath,
		FriendsPath: StubFriendsPath,
	}
}

// Run executes a scenario against a fresh store and returns the result.
//
// Each run gets a fresh in-memory journal, a clock starting at zero and
// flow tokens <flow_token>-1, -2, ... one per flow step. Steps run one at a
// time; a step's thunks are awaited before the next step starts.
//
// The returned error reports a run that could not complete. Assertion
// failures are reported in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return RunContext(ctx, scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	initial, err := buildInitial(scenario.Initial)
	if err != nil {
		return nil, fmt.Errorf("failed to build initial state: %w", err)
	}

	stub, err := buildStub(scenario.Stub)
	if err != nil {
		return nil, fmt.Errorf("failed to build stub: %w", err)
	}

	h := &Harness{
		journal: j,
		stub:    stub,
		clock:   testutil.NewDeterministicClock(),
		flowGen: testutil.NewSequentialFlowGenerator(scenario.FlowToken),
		logger:  testutil.DiscardLogger(),
	}
	h.store = engine.New(initial, state.Root,
		engine.WithClock[state.Tree](h.clock),
		engine.WithFlowGenerator[state.Tree](h.flowGen),
		engine.WithRecorder[state.Tree](j),
		engine.WithLogger[state.Tree](h.logger),
	)

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	runErr := make(chan error, 1)
	go func() { runErr <- h.store.Run(runCtx) }()

	flowErr := h.executeFlow(ctx, scenario.Flow)

	h.store.Stop()
	if err := <-runErr; err != nil && flowErr == nil {
		flowErr = fmt.Errorf("store run: %w", err)
	}
	if flowErr != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", flowErr)
	}

	result := NewResult()
	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs each step to completion in order.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep) error {
	ep := Endpoints()

	for i, step := range flow {
		var err error
		switch step.Invoke {
		case InvokeLogin:
			err = h.runThunk(ctx, effects.Login(h.stub, ep, stringArg(step, "username"), stringArg(step, "password")))
		case InvokeFetchFriends:
			err = h.runThunk(ctx, effects.FetchFriends(h.stub, ep))
		case InvokeLoginAndFetch:
			err = h.runThunk(ctx, effects.LoginAndFetch(h.stub, ep, stringArg(step, "username"), stringArg(step, "password")))
		default:
			err = h.dispatch(ctx, step)
		}
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}

		h.logger.Info("flow step completed",
			"step", i,
			"invoke", step.Invoke,
			"seq", h.clock.Current(),
		)
	}

	return h.store.WaitThunks(ctx)
}

func (h *Harness) runThunk(ctx context.Context, t engine.Thunk[state.Tree]) error {
	return h.store.DispatchThunk(ctx, t).Wait(ctx)
}

// dispatch commits a plain action whose payload is the step's args.
func (h *Harness) dispatch(ctx context.Context, step FlowStep) error {
	kind, err := action.ParseKind(step.Invoke)
	if err != nil {
		return err
	}

	args := step.Args
	if args == nil {
		args = map[string]any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}

	a, err := action.Decode(kind, payload)
	if err != nil {
		return err
	}
	return h.store.Dispatch(ctx, a)
}

// collect fills result with the journaled trace, the final state and the
// requested paths.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	entries, err := h.journal.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	for _, e := range entries {
		var payload map[string]any
		if err := decodeJSON([]byte(e.Payload), &payload); err != nil {
			return fmt.Errorf("failed to decode payload of seq %d: %w", e.Seq, err)
		}
		result.AddTrace(e.Seq, e.FlowToken, string(e.Kind), payload)
	}

	snapshot, err := json.Marshal(h.store.GetState())
	if err != nil {
		return fmt.Errorf("failed to encode final state: %w", err)
	}
	if err := decodeJSON(snapshot, &result.State); err != nil {
		return fmt.Errorf("failed to decode final state: %w", err)
	}

	for _, req := range h.stub.Requests() {
		result.Requests = append(result.Requests, stubPath(req.URL))
	}

	return nil
}

// buildInitial overlays the scenario's seeded slices on the defaults.
func buildInitial(init *InitialState) (state.Tree, error) {
	tree := state.Initial()
	if init == nil {
		return tree, nil
	}

	if init.Auth != nil {
		if err := remarshal(init.Auth, &tree.Auth); err != nil {
			return state.Tree{}, fmt.Errorf("auth: %w", err)
		}
	}
	if init.Friends != nil {
		if err := remarshal(init.Friends, &tree.Friends); err != nil {
			return state.Tree{}, fmt.Errorf("friends: %w", err)
		}
	}
	return tree, nil
}

func buildStub(responses []StubResponse) (*remote.Stub, error) {
	stub := remote.NewStub()
	for i, r := range responses {
		url := stubURL(r.Path)

		if r.TransportError != "" {
			stub.Fail(url, errors.New(r.TransportError))
			continue
		}

		var body []byte
		switch {
		case r.Raw != "":
			body = []byte(r.Raw)
		case r.Body != nil:
			var err error
			body, err = action.MarshalCanonical(r.Body)
			if err != nil {
				return nil, fmt.Errorf("stub[%d]: %w", i, err)
			}
		}
		stub.On(url, remote.Route{Status: r.Status, Body: remote.NewBody(body)})
	}
	return stub, nil
}

func stubURL(path string) string {
	return StubBaseURL + "/" + strings.TrimLeft(path, "/")
}

func stubPath(url string) string {
	return strings.TrimPrefix(url, StubBaseURL+"/")
}

func stringArg(step FlowStep, key string) string {
	s, _ := step.Args[key].(string)
	return s
}

// remarshal converts a YAML-decoded map into a typed value through JSON.
func remarshal(in map[string]any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// decodeJSON keeps numbers as json.Number so integers survive unchanged.
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
