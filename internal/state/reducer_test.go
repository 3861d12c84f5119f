package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loginflow/internal/action"
)

var (
	loginActions = []action.Action{
		action.LoginRequest{},
		action.LoginSuccess{CredentialHash: "YWRtaW46c2VjcmV0", UserID: "admin"},
		action.LoginFailure{Error: "bad creds"},
	}
	friendsActions = []action.Action{
		action.FriendsRequest{},
		action.NewFriendsSuccess([]action.Friend{{}, {}}),
		action.FriendsFailure{Error: "unauthorized"},
	}
)

func sampleAuthStates() []AuthState {
	return []AuthState{
		DefaultAuth(),
		{IsLoggingIn: true},
		{IsAuthenticated: true, CredentialHash: "h", UserID: "u"},
		{Error: "bad creds"},
	}
}

func sampleFriendsStates() []FriendsState {
	return []FriendsState{
		DefaultFriends(),
		{IsLoading: true, Friends: []action.Friend{}},
		{Friends: []action.Friend{{"name": "ada"}}},
		{Error: "unauthorized"},
	}
}

func TestReduceAuth_IgnoresOtherFeatures(t *testing.T) {
	for _, s := range sampleAuthStates() {
		for _, a := range friendsActions {
			assert.Equal(t, s, ReduceAuth(s, a), "auth slice must be unchanged by %s", a.Kind())
		}
	}
}

func TestReduceFriends_IgnoresOtherFeatures(t *testing.T) {
	for _, s := range sampleFriendsStates() {
		for _, a := range loginActions {
			assert.Equal(t, s, ReduceFriends(s, a), "friends slice must be unchanged by %s", a.Kind())
		}
	}
}

func TestReduceAuth_Request(t *testing.T) {
	for _, s := range sampleAuthStates() {
		got := ReduceAuth(s, action.LoginRequest{})
		assert.Equal(t, AuthState{IsLoggingIn: true, IsAuthenticated: false}, got)
	}
}

func TestReduceAuth_Success(t *testing.T) {
	for _, s := range sampleAuthStates() {
		got := ReduceAuth(s, action.LoginSuccess{CredentialHash: "YWRtaW46c2VjcmV0", UserID: "admin"})
		assert.Equal(t, AuthState{
			IsLoggingIn:     false,
			IsAuthenticated: true,
			CredentialHash:  "YWRtaW46c2VjcmV0",
			UserID:          "admin",
		}, got)
		assert.Empty(t, got.Error)
	}
}

func TestReduceAuth_FailureDropsSuccessFields(t *testing.T) {
	prev := AuthState{IsAuthenticated: true, CredentialHash: "h", UserID: "u"}
	got := ReduceAuth(prev, action.LoginFailure{Error: "bad creds"})

	assert.Equal(t, AuthState{IsLoggingIn: false, IsAuthenticated: false, Error: "bad creds"}, got)
	assert.Empty(t, got.CredentialHash)
	assert.Empty(t, got.UserID)
}

func TestReduceFriends_RequestDiscardsPreviousList(t *testing.T) {
	for _, s := range sampleFriendsStates() {
		got := ReduceFriends(s, action.FriendsRequest{})
		assert.True(t, got.IsLoading)
		assert.NotNil(t, got.Friends)
		assert.Empty(t, got.Friends)
		assert.Empty(t, got.Error)
	}
}

func TestReduceFriends_Success(t *testing.T) {
	for _, s := range sampleFriendsStates() {
		got := ReduceFriends(s, action.NewFriendsSuccess([]action.Friend{{}, {}}))
		assert.False(t, got.IsLoading)
		assert.Len(t, got.Friends, 2)
		assert.Empty(t, got.Error)
	}
}

func TestReduceFriends_FailureHasNoList(t *testing.T) {
	for _, s := range sampleFriendsStates() {
		got := ReduceFriends(s, action.FriendsFailure{Error: "unauthorized"})
		assert.Equal(t, FriendsState{IsLoading: false, Error: "unauthorized"}, got)
		assert.Nil(t, got.Friends)
	}
}

func TestRoot_RoutesToEverySlice(t *testing.T) {
	tree := Initial()

	tree = Root(tree, action.LoginRequest{})
	assert.True(t, tree.Auth.IsLoggingIn)
	assert.Equal(t, DefaultFriends(), tree.Friends)

	tree = Root(tree, action.LoginSuccess{CredentialHash: "YWRtaW46c2VjcmV0", UserID: "admin"})
	tree = Root(tree, action.FriendsRequest{})
	assert.True(t, tree.Friends.IsLoading)
	assert.True(t, tree.Auth.IsAuthenticated, "friends actions leave auth alone")

	tree = Root(tree, action.FriendsFailure{Error: "unauthorized"})
	tree = Root(tree, action.LoginFailure{Error: "unauthorized"})
	assert.Equal(t, FriendsState{Error: "unauthorized"}, tree.Friends)
	assert.Equal(t, AuthState{Error: "unauthorized"}, tree.Auth)
}

func TestInitial(t *testing.T) {
	tree := Initial()
	assert.Equal(t, AuthState{}, tree.Auth)
	assert.Equal(t, FriendsState{Friends: []action.Friend{}}, tree.Friends)
	assert.Equal(t, []string{"auth", "friends"}, Slices())
}

func TestTree_Slice(t *testing.T) {
	tree := Initial()

	auth, ok := tree.Slice("auth")
	require.True(t, ok)
	assert.Equal(t, tree.Auth, auth)

	_, ok = tree.Slice("user")
	assert.False(t, ok)
}

func TestTree_JSONShape(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
		want string
	}{
		{
			name: "initial",
			tree: Initial(),
			want: `{"auth":{"isLoggingIn":false,"isAuthenticated":false},"friends":{"isLoading":false,"friends":[]}}`,
		},
		{
			name: "logged in",
			tree: Tree{
				Auth:    AuthState{IsAuthenticated: true, CredentialHash: "YWRtaW46c2VjcmV0", UserID: "admin"},
				Friends: DefaultFriends(),
			},
			want: `{"auth":{"isLoggingIn":false,"isAuthenticated":true,"credentialHash":"YWRtaW46c2VjcmV0","userId":"admin"},"friends":{"isLoading":false,"friends":[]}}`,
		},
		{
			name: "friends failure",
			tree: Tree{
				Auth:    AuthState{Error: "unauthorized"},
				Friends: FriendsState{Error: "unauthorized"},
			},
			want: `{"auth":{"isLoggingIn":false,"isAuthenticated":false,"error":"unauthorized"},"friends":{"isLoading":false,"error":"unauthorized"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.tree)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			var back Tree
			require.NoError(t, json.Unmarshal(got, &back))
			assert.Equal(t, tt.tree, back)
		})
	}
}
