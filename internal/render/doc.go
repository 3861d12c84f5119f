// Package render prints store snapshots for an operator.
//
// A Renderer writes each snapshot as indented JSON between a header and a
// footer, then optionally waits for the operator to acknowledge it. It is
// attached to a store with Listener and never influences state.
package render
