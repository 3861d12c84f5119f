package journal

import (
	"context"
	"fmt"
)

// Record appends an entry. A duplicate ID is silently ignored.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO actions (id, seq, flow_token, kind, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Seq,
		e.FlowToken,
		string(e.Kind),
		e.Payload,
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}
