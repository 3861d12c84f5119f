package action

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainAction separates action IDs from any other hash the program computes.
const DomainAction = "loginflow/action/v1"

// MarshalCanonical produces canonical JSON for v.
//
// Rules:
//   - object keys sorted by UTF-16 code units
//   - strings NFC-normalised; only quote, backslash and control characters escaped
//   - integral floats written as integers, other floats in shortest form
//   - null is written as is (friend objects are opaque server JSON)
//   - NaN and infinities are rejected
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		writeCanonicalString(buf, val)
	case Kind:
		writeCanonicalString(buf, string(val))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		return writeCanonicalFloat(buf, val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			buf.WriteString(strconv.FormatInt(n, 10))
			return nil
		}
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", val, err)
		}
		return writeCanonicalFloat(buf, f)
	case Friend:
		return writeCanonicalObject(buf, map[string]any(val))
	case map[string]any:
		return writeCanonicalObject(buf, val)
	case []Friend:
		items := make([]any, len(val))
		for i, f := range val {
			items[i] = f
		}
		return writeCanonicalArray(buf, items)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return writeCanonicalArray(buf, items)
	case []any:
		return writeCanonicalArray(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v in canonical JSON", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hexDigits = "0123456789abcdef"
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

func writeCanonicalArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, item); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalString(buf, k)
		buf.WriteByte(':')
		if err := writeCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("object[%q]: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// compareUTF16 orders strings by UTF-16 code units, which differs from Go's
// byte order for characters outside the BMP.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// ID computes the content-addressed identity of a committed action.
// Format: hex(SHA256(DomainAction || 0x00 || canonical({flow, kind, payload, seq}))).
func ID(flowToken string, kind Kind, payload map[string]any, seq int64) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"flow_token": flowToken,
		"kind":       kind,
		"payload":    payload,
		"seq":        seq,
	})
	if err != nil {
		return "", fmt.Errorf("action ID: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainAction))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Decode rebuilds an Action from its kind and JSON payload, the inverse of
// encoding Payload. Unknown kinds are an error.
func Decode(kind Kind, payload []byte) (Action, error) {
	var fields struct {
		CredentialHash string   `json:"credentialHash"`
		UserID         string   `json:"userId"`
		Error          string   `json:"error"`
		Friends        []Friend `json:"friends"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
	}

	switch kind {
	case KindLoginRequest:
		return LoginRequest{}, nil
	case KindLoginSuccess:
		return LoginSuccess{CredentialHash: fields.CredentialHash, UserID: fields.UserID}, nil
	case KindLoginFailure:
		return LoginFailure{Error: fields.Error}, nil
	case KindFriendsRequest:
		return FriendsRequest{}, nil
	case KindFriendsSuccess:
		return NewFriendsSuccess(fields.Friends), nil
	case KindFriendsFailure:
		return FriendsFailure{Error: fields.Error}, nil
	default:
		return nil, fmt.Errorf("decode: unknown action kind %q", kind)
	}
}
