// Package journal records every committed action in an append-only SQLite
// table.
//
// The journal is a diagnostic trace: it lets an operator see which actions
// a flow committed and in what order. State is never rebuilt from it.
//
// Each row holds:
//   - id: content-addressed hash of (flow_token, kind, payload, seq)
//   - seq: the store's logical clock at commit
//   - flow_token: correlation token shared by one thunk's actions
//   - kind: the action's wire name
//   - payload: canonical JSON of the action's fields
//
// Recording the same entry twice is a no-op (ON CONFLICT(id) DO NOTHING).
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//
// Open(":memory:") gives a private in-memory journal.
package journal
