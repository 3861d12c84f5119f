// Package remote is the side-effect capability used by action creators:
// perform a GET with headers, report a status and a parsed body, or fail
// at the transport level.
//
// HTTPClient talks to a real server. Stub answers from a script and is used
// by tests and scenario runs.
package remote
