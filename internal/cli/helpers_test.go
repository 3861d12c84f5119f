package cli

import (
	"bytes"
	"testing"

	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/remote"
)

const (
	stubBase    = "https://stub.test"
	stubLogin   = stubBase + "/login"
	stubFriends = stubBase + "/friends"
)

// stubFlags point every request command at the stub.
var stubFlags = []string{
	"--endpoint", stubBase,
	"--login-path", "login",
	"--friends-path", "friends",
}

// isolateConfig keeps a developer's config file and env out of the test.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOGINFLOW_CONFIG", "")
}

func newTestOptions(stub *remote.Stub) *RootOptions {
	return &RootOptions{
		Requester:     stub,
		FlowGenerator: engine.NewFixedGenerator("flow-1", "flow-2", "flow-3"),
	}
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	isolateConfig(t)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func okLoginStub() *remote.Stub {
	return remote.NewStub().Respond(stubLogin, 200, `{"authenticated":true,"user":"admin"}`)
}
