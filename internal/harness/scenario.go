package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/state"
)

// Scenario is one scripted run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// FlowToken prefixes the per-step flow tokens.
	// Defaults to "test-flow-default".
	FlowToken string `yaml:"flow_token,omitempty"`

	// Initial seeds slices before the first step. Omitted slices start
	// from their defaults.
	Initial *InitialState `yaml:"initial,omitempty"`

	// Stub scripts the remote server by path.
	Stub []StubResponse `yaml:"stub,omitempty"`

	// Flow lists the steps to run, in order. Each step runs to completion
	// before the next starts.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// InitialState seeds slices by their JSON form.
type InitialState struct {
	Auth    map[string]any `yaml:"auth,omitempty"`
	Friends map[string]any `yaml:"friends,omitempty"`
}

// StubResponse is a scripted answer for a path under the stub base URL.
// Several entries for one path are answered in order; the last repeats.
type StubResponse struct {
	Path string `yaml:"path"`

	// Status is the HTTP status. Required unless TransportError is set.
	Status int `yaml:"status,omitempty"`

	// Body is encoded as JSON.
	Body any `yaml:"body,omitempty"`

	// Raw is sent verbatim instead of Body.
	Raw string `yaml:"raw,omitempty"`

	// TransportError simulates a failure to get any response.
	TransportError string `yaml:"transport_error,omitempty"`
}

// FlowStep is one step of the run.
type FlowStep struct {
	// Invoke is an action creator (login, fetch_friends, login_and_fetch)
	// or an action kind to dispatch directly (e.g. "login.failure").
	Invoke string `yaml:"invoke"`

	// Args are the creator's arguments or the action's payload.
	Args map[string]any `yaml:"args,omitempty"`
}

// Action creators a step can invoke.
const (
	InvokeLogin         = "login"
	InvokeFetchFriends  = "fetch_friends"
	InvokeLoginAndFetch = "login_and_fetch"
)

// Assertion validates the trace, the final state, or the requests made.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is an action kind (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Payload is a subset the matching action's payload must contain
	// (trace_contains).
	Payload map[string]any `yaml:"payload,omitempty"`

	// Actions is the expected order; other actions may appear in between
	// (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of occurrences (trace_count,
	// request_count).
	Count int `yaml:"count,omitempty"`

	// Slice names the state slice (final_state).
	Slice string `yaml:"slice,omitempty"`

	// Expect is a subset of fields the slice must have (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent lists fields the slice must not have (final_state).
	Absent []string `yaml:"absent,omitempty"`

	// Path is a stub path (request_count).
	Path string `yaml:"path,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRequestCount  = "request_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml/.yml files directly in dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must have at least one step")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions must have at least one entry")
	}

	for i, r := range s.Stub {
		if r.Path == "" {
			return fmt.Errorf("stub[%d]: path is required", i)
		}
		if r.TransportError == "" && r.Status == 0 {
			return fmt.Errorf("stub[%d]: status or transport_error is required", i)
		}
		if r.Body != nil && r.Raw != "" {
			return fmt.Errorf("stub[%d]: body and raw are mutually exclusive", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step FlowStep) error {
	switch step.Invoke {
	case "":
		return fmt.Errorf("flow[%d]: invoke is required", index)
	case InvokeLogin, InvokeLoginAndFetch:
		for _, key := range []string{"username", "password"} {
			if _, ok := step.Args[key].(string); !ok {
				return fmt.Errorf("flow[%d]: %s requires string arg %q", index, step.Invoke, key)
			}
		}
	case InvokeFetchFriends:
	default:
		if _, err := action.ParseKind(step.Invoke); err != nil {
			return fmt.Errorf("flow[%d]: unknown invoke %q", index, step.Invoke)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Slice == "" {
			return fmt.Errorf("assertions[%d]: slice is required for final_state", index)
		}
		if _, ok := state.Initial().Slice(a.Slice); !ok {
			return fmt.Errorf("assertions[%d]: unknown slice %q", index, a.Slice)
		}
		if len(a.Expect) == 0 && len(a.Absent) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for final_state", index)
		}
	case AssertRequestCount:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for request_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
