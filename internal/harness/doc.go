// Package harness runs YAML scenarios against a real store.
//
// A scenario scripts the remote server (responses per path), optionally
// seeds the state tree, then drives the store with action creators or
// plain actions. Every committed action is journaled; the journal becomes
// the run's trace. Assertions check the trace and the final state, and the
// trace plus final state can be compared byte-for-byte against a golden
// file.
//
// Runs are deterministic: seq comes from a resetting logical clock and
// each top-level step gets the flow token <flow_token>-<n>.
//
// Example scenario:
//
//	name: login_success
//	stub:
//	  - path: login
//	    status: 200
//	    body: {authenticated: true, user: admin}
//	flow:
//	  - invoke: login
//	    args: {username: admin, password: secret}
//	assertions:
//	  - type: trace_order
//	    actions: [login.request, login.success]
//	  - type: final_state
//	    slice: auth
//	    expect: {isAuthenticated: true, userId: admin}
package harness
