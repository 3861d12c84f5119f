// Package effects holds the action creators: thunks that wrap one remote
// request in the request/success/failure lifecycle.
//
// Every creator follows the same shape:
//
//  1. Dispatch the request Action before the side effect starts.
//  2. Perform the request through a remote.Requester.
//  3. Treat any non-2xx status as a failure.
//  4. Dispatch exactly one terminal outcome.
//
// A terminal outcome is usually one Action. The exception is a 401 while
// fetching friends: the friends failure is followed by a login failure
// carrying the same message, so the auth slice stops claiming an
// authenticated session.
//
// Failures never escape as errors. A creator's thunk returns an error only
// when the store itself refused a dispatch.
package effects
