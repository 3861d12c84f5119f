package harness

// TraceEvent is one committed action as recorded in the journal.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Flow    string         `json:"flow"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists committed actions in commit order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state tree, keyed by slice name, in its JSON form.
	State map[string]any `json:"state,omitempty"`

	// Requests lists the stub paths requested, in order.
	Requests []string `json:"requests,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		State:    make(map[string]any),
		Requests: []string{},
	}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a committed action.
func (r *Result) AddTrace(seq int64, flow, kind string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Flow:    flow,
		Kind:    kind,
		Payload: payload,
	})
}

// Kinds returns the trace's action kinds in order.
func (r *Result) Kinds() []string {
	out := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		out[i] = e.Kind
	}
	return out
}
