package state

import "github.com/roach88/loginflow/internal/action"

// Slice names, fixed at composition time.
const (
	SliceAuth    = "auth"
	SliceFriends = "friends"
)

// Tree is the whole state of the store.
type Tree struct {
	Auth    AuthState    `json:"auth"`
	Friends FriendsState `json:"friends"`
}

// Slices lists the slice names of Tree in declaration order.
func Slices() []string {
	return []string{SliceAuth, SliceFriends}
}

// Initial builds the tree from each slice's default.
func Initial() Tree {
	return Tree{
		Auth:    DefaultAuth(),
		Friends: DefaultFriends(),
	}
}

// Root applies every slice reducer to its own slice and assembles the next
// tree. It is the only function that produces a new Tree.
func Root(prev Tree, a action.Action) Tree {
	return Tree{
		Auth:    ReduceAuth(prev.Auth, a),
		Friends: ReduceFriends(prev.Friends, a),
	}
}

// Slice returns the named slice, or nil and false if the name is unknown.
func (t Tree) Slice(name string) (any, bool) {
	switch name {
	case SliceAuth:
		return t.Auth, true
	case SliceFriends:
		return t.Friends, true
	default:
		return nil, false
	}
}
