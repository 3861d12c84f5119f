package action

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the wire name of an Action.
type Kind string

const (
	KindLoginRequest   Kind = "login.request"
	KindLoginSuccess   Kind = "login.success"
	KindLoginFailure   Kind = "login.failure"
	KindFriendsRequest Kind = "friends.request"
	KindFriendsSuccess Kind = "friends.success"
	KindFriendsFailure Kind = "friends.failure"
)

// Phase is the lifecycle position of a Kind within its feature triple.
type Phase string

const (
	PhaseRequest Phase = "request"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

var allKinds = []Kind{
	KindLoginRequest,
	KindLoginSuccess,
	KindLoginFailure,
	KindFriendsRequest,
	KindFriendsSuccess,
	KindFriendsFailure,
}

// Kinds returns every known Kind in declaration order.
func Kinds() []Kind {
	return slices.Clone(allKinds)
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return slices.Contains(allKinds, k)
}

// Feature returns the feature prefix of the kind ("login", "friends").
func (k Kind) Feature() string {
	feature, _, _ := strings.Cut(string(k), ".")
	return feature
}

// Phase returns the lifecycle phase of the kind.
func (k Kind) Phase() Phase {
	_, phase, _ := strings.Cut(string(k), ".")
	return Phase(phase)
}

// ParseKind converts a wire name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// Action is a sealed interface: only the types in this package implement it.
type Action interface {
	Kind() Kind
	sealed()
}

// Friend is an opaque entity returned by the friends endpoint.
// Its fields are not validated.
type Friend map[string]any

// LoginRequest marks the start of a login attempt.
type LoginRequest struct{}

// LoginSuccess carries the credential token sent to the server and the
// user it identified.
type LoginSuccess struct {
	CredentialHash string
	UserID         string
}

// LoginFailure carries the reason a login was rejected.
type LoginFailure struct {
	Error string
}

// FriendsRequest marks the start of a friends fetch.
type FriendsRequest struct{}

// FriendsSuccess carries the fetched friends. Construct it with
// NewFriendsSuccess so the slice is not shared with the caller.
type FriendsSuccess struct {
	Friends []Friend
}

// FriendsFailure carries the reason a friends fetch failed.
type FriendsFailure struct {
	Error string
}

func (LoginRequest) Kind() Kind   { return KindLoginRequest }
func (LoginSuccess) Kind() Kind   { return KindLoginSuccess }
func (LoginFailure) Kind() Kind   { return KindLoginFailure }
func (FriendsRequest) Kind() Kind { return KindFriendsRequest }
func (FriendsSuccess) Kind() Kind { return KindFriendsSuccess }
func (FriendsFailure) Kind() Kind { return KindFriendsFailure }

func (LoginRequest) sealed()   {}
func (LoginSuccess) sealed()   {}
func (LoginFailure) sealed()   {}
func (FriendsRequest) sealed() {}
func (FriendsSuccess) sealed() {}
func (FriendsFailure) sealed() {}

// NewFriendsSuccess copies friends into a new FriendsSuccess.
// A nil input yields an empty, non-nil list.
func NewFriendsSuccess(friends []Friend) FriendsSuccess {
	out := make([]Friend, len(friends))
	for i, f := range friends {
		out[i] = cloneFriend(f)
	}
	return FriendsSuccess{Friends: out}
}

func cloneFriend(f Friend) Friend {
	if f == nil {
		return Friend{}
	}
	out := make(Friend, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Payload returns the kind-specific fields of a, keyed by their JSON names.
// Request actions have an empty payload.
func Payload(a Action) map[string]any {
	switch a := a.(type) {
	case LoginSuccess:
		return map[string]any{
			"credentialHash": a.CredentialHash,
			"userId":         a.UserID,
		}
	case LoginFailure:
		return map[string]any{"error": a.Error}
	case FriendsSuccess:
		friends := make([]any, len(a.Friends))
		for i, f := range a.Friends {
			friends[i] = map[string]any(f)
		}
		return map[string]any{"friends": friends}
	case FriendsFailure:
		return map[string]any{"error": a.Error}
	default:
		return map[string]any{}
	}
}

// String renders an action for logs.
func String(a Action) string {
	switch a := a.(type) {
	case LoginSuccess:
		return fmt.Sprintf("%s(user=%s)", a.Kind(), a.UserID)
	case LoginFailure:
		return fmt.Sprintf("%s(%q)", a.Kind(), a.Error)
	case FriendsSuccess:
		return fmt.Sprintf("%s(%d friends)", a.Kind(), len(a.Friends))
	case FriendsFailure:
		return fmt.Sprintf("%s(%q)", a.Kind(), a.Error)
	case nil:
		return "<nil>"
	default:
		return string(a.Kind())
	}
}
