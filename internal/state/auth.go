package state

import "github.com/roach88/loginflow/internal/action"

// AuthState is the auth slice.
type AuthState struct {
	IsLoggingIn     bool   `json:"isLoggingIn"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	CredentialHash  string `json:"credentialHash,omitempty"`
	UserID          string `json:"userId,omitempty"`
	Error           string `json:"error,omitempty"`
}

// DefaultAuth is the auth slice before any action.
func DefaultAuth() AuthState {
	return AuthState{}
}

// ReduceAuth computes the next auth slice.
func ReduceAuth(prev AuthState, a action.Action) AuthState {
	switch a := a.(type) {
	case action.LoginRequest:
		return AuthState{IsLoggingIn: true, IsAuthenticated: false}
	case action.LoginFailure:
		return AuthState{IsLoggingIn: false, IsAuthenticated: false, Error: a.Error}
	case action.LoginSuccess:
		return AuthState{
			IsLoggingIn:     false,
			IsAuthenticated: true,
			CredentialHash:  a.CredentialHash,
			UserID:          a.UserID,
		}
	default:
		return prev
	}
}
