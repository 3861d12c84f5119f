package harness

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/loginflow/internal/action"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.Flow, event.Kind, formatValue(event.Payload))
		}
	}

	return buf.String()
}

// assertTraceContains checks that some action of the given kind carries
// the expected payload fields (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Kind == assertion.Action && matchSubset(event.Payload, assertion.Payload) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with payload %s", assertion.Action, formatValue(assertion.Payload)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed kinds occur as a subsequence of
// the trace. Intervening actions are allowed and a kind may repeat.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Actions) && event.Kind == assertion.Actions[next] {
			next++
		}
	}

	if next < len(assertion.Actions) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
			Actual: fmt.Sprintf("matched %d of %d; %s not found after %v",
				next, len(assertion.Actions), assertion.Actions[next], assertion.Actions[:next]),
			Trace: trace,
		}
	}

	return nil
}

// assertTraceCount checks the number of actions of one kind.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Kind == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks a slice of the final state: every Expect field
// must be present and equal, every Absent field missing.
func assertFinalState(st map[string]any, assertion Assertion) error {
	raw, ok := st[assertion.Slice]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("slice %q", assertion.Slice),
			Actual:   "slice not present in state",
		}
	}
	slice, ok := raw.(map[string]any)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("slice %q to be an object", assertion.Slice),
			Actual:   fmt.Sprintf("%T", raw),
		}
	}

	for _, key := range sortedKeys(assertion.Expect) {
		want := assertion.Expect[key]
		got, exists := slice[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %s", assertion.Slice, key, formatValue(want)),
				Actual:   fmt.Sprintf("%s.%s not present in %s", assertion.Slice, key, formatValue(slice)),
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %s", assertion.Slice, key, formatValue(want)),
				Actual:   fmt.Sprintf("%s.%s = %s", assertion.Slice, key, formatValue(got)),
			}
		}
	}

	for _, key := range assertion.Absent {
		if got, exists := slice[key]; exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s absent", assertion.Slice, key),
				Actual:   fmt.Sprintf("%s.%s = %s", assertion.Slice, key, formatValue(got)),
			}
		}
	}

	return nil
}

// assertRequestCount checks how many requests hit a stub path.
func assertRequestCount(requests []string, assertion Assertion) error {
	want := strings.TrimLeft(assertion.Path, "/")
	count := 0
	for _, path := range requests {
		if path == want {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%d requests to %s", assertion.Count, want),
			Actual:   fmt.Sprintf("%d requests (all: %v)", count, requests),
		}
	}

	return nil
}

// matchSubset checks if actual contains every expected key with an equal
// value. Extra keys in actual are ignored.
func matchSubset(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, exists := actual[key]
		if !exists || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares two JSON-like values by their canonical encoding, so
// YAML ints, decoded json.Numbers and float64s compare by value.
func valuesEqual(actual, expected any) bool {
	a, err := action.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := action.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}

func formatValue(v any) string {
	b, err := action.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertRequestCount:
			err = assertRequestCount(result.Requests, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
