// Package action defines the closed set of state-transition records that
// flow through the store.
//
// Every Action is an immutable value implementing the sealed Action
// interface. Kinds are grouped per feature into request/success/failure
// triples:
//
//	login.request   -> LoginRequest
//	login.success   -> LoginSuccess{CredentialHash, UserID}
//	login.failure   -> LoginFailure{Error}
//	friends.request -> FriendsRequest
//	friends.success -> FriendsSuccess{Friends}
//	friends.failure -> FriendsFailure{Error}
//
// Reducers match on the concrete type with a type switch; no string
// comparison on Kind is required to route an Action.
//
// The package also provides canonical JSON encoding and content-addressed
// IDs so committed actions can be journaled and compared byte-for-byte
// across runs.
package action
