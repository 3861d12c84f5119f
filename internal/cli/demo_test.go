package cli

import (
	"strings"
	"sync/atomic"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/render"
)

type countingPauser struct {
	n atomic.Int32
}

func (p *countingPauser) Pause() error {
	p.n.Add(1)
	return nil
}

func TestDemoCommand_LoginAndFriends(t *testing.T) {
	stub := okLoginStub().Respond(stubFriends, 200, `{"friends":[{"name":"ada"}]}`)
	pauser := &countingPauser{}
	opts := newTestOptions(stub)
	opts.Pauser = pauser

	out, err := execute(t, opts, append([]string{"demo"}, stubFlags...)...)
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(out, render.HeaderLine))
	assert.Equal(t, int32(4), pauser.n.Load())

	login := strings.Index(out, stepLogin)
	friends := strings.Index(out, stepFriends)
	require.NotEqual(t, -1, login)
	require.NotEqual(t, -1, friends)
	assert.Less(t, login, friends)

	last := out[strings.LastIndex(out, render.HeaderLine):]
	assert.Contains(t, last, `"name": "ada"`)
	assert.Contains(t, last, `"isAuthenticated": true`)
}

func TestDemoCommand_LoginFailureSkipsFriends(t *testing.T) {
	stub := remote.NewStub().Respond(stubLogin, 401, `{"error":"bad creds"}`)
	opts := newTestOptions(stub)
	opts.Pauser = render.NoPause{}

	out, err := execute(t, opts, append([]string{"demo"}, stubFlags...)...)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, render.HeaderLine))
	assert.NotContains(t, out, stepFriends)
	assert.Len(t, stub.Requests(), 1)
}

func TestDemoCommand_NoFriendsFlag(t *testing.T) {
	opts := newTestOptions(okLoginStub())
	opts.Pauser = render.NoPause{}

	out, err := execute(t, opts, append([]string{"demo", "--friends=false"}, stubFlags...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, stepFriends)
}

func TestDemoCommand_Stats(t *testing.T) {
	opts := newTestOptions(okLoginStub())
	opts.Pauser = render.NoPause{}

	out, err := execute(t, opts, append([]string{"demo", "--friends=false", "--stats"}, stubFlags...)...)
	require.NoError(t, err)

	assert.Contains(t, out, "=== Stats ===")
	assert.Contains(t, out, `loginflow_effects_outcomes{effect="login",outcome="success"}`)
	assert.Contains(t, out, "loginflow_store_actions_committed")
}

func TestDemoCommand_ListenerErrorDoesNotStopStore(t *testing.T) {
	opts := newTestOptions(okLoginStub())
	opts.Pauser = abortingPauser{}

	out, err := execute(t, opts, append([]string{"demo", "--friends=false"}, stubFlags...)...)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, render.HeaderLine))
}

type abortingPauser struct{}

func (abortingPauser) Pause() error { return render.ErrAborted }

func TestFormatLabels(t *testing.T) {
	label := func(name, value string) *dto.LabelPair {
		return &dto.LabelPair{Name: &name, Value: &value}
	}

	assert.Equal(t, "", formatLabels(nil))
	assert.Equal(t, `{effect="login"}`, formatLabels([]*dto.LabelPair{label("effect", "login")}))
	assert.Equal(t, `{effect="friends",outcome="unauthorized"}`, formatLabels([]*dto.LabelPair{
		label("effect", "friends"),
		label("outcome", "unauthorized"),
	}))
}
