package state

import (
	"encoding/json"
	"slices"

	"github.com/roach88/loginflow/internal/action"
)

// FriendsState is the friends slice.
//
// Friends is nil when the current branch carries no list (failure); an
// empty, non-nil list means "no friends yet".
type FriendsState struct {
	IsLoading bool
	Friends   []action.Friend
	Error     string
}

// DefaultFriends is the friends slice before any action.
func DefaultFriends() FriendsState {
	return FriendsState{Friends: []action.Friend{}}
}

// ReduceFriends computes the next friends slice.
func ReduceFriends(prev FriendsState, a action.Action) FriendsState {
	switch a := a.(type) {
	case action.FriendsRequest:
		return FriendsState{IsLoading: true, Friends: []action.Friend{}}
	case action.FriendsFailure:
		return FriendsState{IsLoading: false, Error: a.Error}
	case action.FriendsSuccess:
		friends := slices.Clone(a.Friends)
		if friends == nil {
			friends = []action.Friend{}
		}
		return FriendsState{IsLoading: false, Friends: friends}
	default:
		return prev
	}
}

type friendsJSON struct {
	IsLoading bool             `json:"isLoading"`
	Friends   *[]action.Friend `json:"friends,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// MarshalJSON writes "friends" only when the list is present, so an empty
// list and a missing list stay distinguishable.
func (s FriendsState) MarshalJSON() ([]byte, error) {
	out := friendsJSON{IsLoading: s.IsLoading, Error: s.Error}
	if s.Friends != nil {
		out.Friends = &s.Friends
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *FriendsState) UnmarshalJSON(data []byte) error {
	var in friendsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = FriendsState{IsLoading: in.IsLoading, Error: in.Error}
	if in.Friends != nil {
		s.Friends = *in.Friends
		if s.Friends == nil {
			s.Friends = []action.Friend{}
		}
	}
	return nil
}
