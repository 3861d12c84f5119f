package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/loginflow/internal/action"
)

// ReadFlow returns a flow's entries ordered by seq.
func (j *Journal) ReadFlow(ctx context.Context, flowToken string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq, flow_token, kind, payload
		FROM actions
		WHERE flow_token = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, flowToken)
	if err != nil {
		return nil, fmt.Errorf("read flow %s: %w", flowToken, err)
	}
	return scanEntries(rows)
}

// ReadAll returns every entry in the order it was recorded.
func (j *Journal) ReadAll(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq, flow_token, kind, payload
		FROM actions
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}
	return scanEntries(rows)
}

// Flows returns the distinct flow tokens in first-recorded order.
func (j *Journal) Flows(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT flow_token
		FROM actions
		GROUP BY flow_token
		ORDER BY MIN(rowid) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read flows: %w", err)
	}
	defer rows.Close()

	var flows []string
	for rows.Next() {
		var flow string
		if err := rows.Scan(&flow); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, flow)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read flows: %w", err)
	}
	return flows, nil
}

// CountByKind returns how many entries of each kind were recorded.
func (j *Journal) CountByKind(ctx context.Context) (map[action.Kind]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM actions GROUP BY kind ORDER BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer rows.Close()

	counts := make(map[action.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[action.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	return counts, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.Seq, &e.FlowToken, &kind, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = action.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
