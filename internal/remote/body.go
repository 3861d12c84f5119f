package remote

import (
	"log/slog"

	"github.com/tidwall/gjson"
)

// Body is a response payload, read leniently: a missing field or a body
// that is not JSON reads as absent, never as an error.
type Body struct {
	raw []byte
}

// NewBody wraps raw bytes.
func NewBody(raw []byte) Body {
	return Body{raw: raw}
}

// JSONBody wraps a JSON literal. Used by tests and scenarios.
func JSONBody(s string) Body {
	return Body{raw: []byte(s)}
}

// Raw returns the unparsed bytes.
func (b Body) Raw() []byte {
	return b.raw
}

// Valid reports whether the body is well-formed JSON.
func (b Body) Valid() bool {
	return gjson.ValidBytes(b.raw)
}

// Exists reports whether path resolves to a value.
func (b Body) Exists(path string) bool {
	return b.Valid() && gjson.GetBytes(b.raw, path).Exists()
}

// String returns the value at path as a string, "" when absent.
func (b Body) String(path string) string {
	if !b.Valid() {
		return ""
	}
	return gjson.GetBytes(b.raw, path).String()
}

// Objects returns the objects in the array at path. Elements that are not
// objects are skipped and counted in a debug log line. It returns nil when
// path is absent or not an array.
func (b Body) Objects(path string) []map[string]any {
	if !b.Valid() {
		return nil
	}

	result := gjson.GetBytes(b.raw, path)
	if !result.IsArray() {
		return nil
	}

	items := result.Array()
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.Value().(map[string]any)
		if !ok {
			continue
		}
		out = append(out, obj)
	}
	if dropped := len(items) - len(out); dropped > 0 {
		slog.Debug("skipped non-object array elements",
			"path", path,
			"dropped", dropped,
			"kept", len(out),
		)
	}
	return out
}
