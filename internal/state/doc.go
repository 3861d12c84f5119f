// Package state holds the store's state tree and the pure reducers that
// compute it.
//
// The tree has two slices, fixed at composition time:
//
//	auth    -> AuthState    (ReduceAuth)
//	friends -> FriendsState (ReduceFriends)
//
// Reducers are total: an Action they do not handle returns the prior slice
// unchanged. Every handled branch builds a complete slice literal rather
// than patching the prior value, so fields set by one branch never leak
// into a differently-shaped branch.
package state
