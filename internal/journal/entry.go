package journal

import (
	"fmt"

	"github.com/roach88/loginflow/internal/action"
)

// Entry is one committed action.
type Entry struct {
	ID        string      `json:"id"`
	Seq       int64       `json:"seq"`
	FlowToken string      `json:"flow_token"`
	Kind      action.Kind `json:"kind"`
	Payload   string      `json:"payload"`
}

// NewEntry builds the journal entry for a committed action.
func NewEntry(flowToken string, a action.Action, seq int64) (Entry, error) {
	fields := action.Payload(a)

	payload, err := action.MarshalCanonical(fields)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}

	id, err := action.ID(flowToken, a.Kind(), fields, seq)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}

	return Entry{
		ID:        id,
		Seq:       seq,
		FlowToken: flowToken,
		Kind:      a.Kind(),
		Payload:   string(payload),
	}, nil
}

// Action decodes the entry back into an Action.
func (e Entry) Action() (action.Action, error) {
	return action.Decode(e.Kind, []byte(e.Payload))
}
