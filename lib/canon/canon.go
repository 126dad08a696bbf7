package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/sindri-systems/jsonreg/lib/errs"
)

// object preserves insertion order so duplicate-key detection can run
// against the order values actually arrived in, while Bytes sorts a copy
// of the keys before emitting them.
type object struct {
	keys []string
	vals []any
}

// Bytes canonicalises raw JSON input into its deterministic byte form.
// It fails with an *errs.Error of Kind InvalidJson if raw is not a single
// valid JSON value, if it contains trailing non-whitespace data, or if any
// object in it repeats a key at the same nesting level.
func Bytes(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, errs.New(errs.InvalidJson, "failed to parse JSON value", err)
	}

	// Reject trailing garbage after the single top-level value.
	if _, err := dec.Token(); err != io.EOF {
		return nil, errs.New(errs.InvalidJson, "trailing data after JSON value", nil)
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, errs.New(errs.InvalidJson, "failed to canonicalise JSON value", err)
	}
	return buf.Bytes(), nil
}

// decodeValue reads one JSON value from dec using its token stream, so
// object key order (for duplicate detection) and exact number text (for
// the integer/decimal split below) both survive the initial parse.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeValueFromToken(dec, tok)
}

func decodeValueFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string, json.Number, bool, nil:
		return tok, nil
	default:
		return nil, fmt.Errorf("unexpected token %v (%T)", tok, tok)
	}
}

func decodeObject(dec *json.Decoder) (*object, error) {
	obj := &object{}
	seen := make(map[string]struct{})
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate object key %q", key)
		}
		seen[key] = struct{}{}

		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.keys = append(obj.keys, key)
		obj.vals = append(obj.vals, val)
	}
}

// decodeArray reads array elements until the closing ']'. json.Decoder has
// no peek, so More() is used to distinguish "another element" from "end of
// array" before falling through to read the closing delimiter token.
func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for {
		if dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
			continue
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		return nil, fmt.Errorf("expected ']', got %v", tok)
	}
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		s, err := formatNumber(t)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case string:
		encodeString(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *object:
		buf.WriteByte('{')
		order := make([]int, len(t.keys))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return t.keys[order[a]] < t.keys[order[b]] })
		for i, idx := range order {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, t.keys[idx])
			buf.WriteByte(':')
			if err := encodeValue(buf, t.vals[idx]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// formatNumber applies the numeric canonicalization policy: values
// representable as 64-bit signed integers without loss emit as -?[0-9]+;
// everything else emits in shortest round-trip decimal, using e-notation
// only when it is strictly shorter than fixed-point.
func formatNumber(n json.Number) (string, error) {
	s := n.String()

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("invalid JSON number %q: %w", s, err)
	}
	if math.Trunc(f) == f && f >= -9223372036854775808 && f < 9223372036854775808 {
		return strconv.FormatInt(int64(f), 10), nil
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	sci = normalizeExponent(sci)
	if len(sci) < len(fixed) {
		return sci, nil
	}
	return fixed, nil
}

// normalizeExponent rewrites Go's "e+05"/"e-05" exponent form into JSON's
// conventional "e5"/"e-5" (no leading zero, no '+').
func normalizeExponent(s string) string {
	idx := -1
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' {
			idx = i
			break
		}
	}
	if idx == -1 {
		return s
	}
	mantissa, exp := s[:idx], s[idx+1:]
	neg := false
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		neg = exp[0] == '-'
		exp = exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	if neg {
		return mantissa + "e-" + exp
	}
	return mantissa + "e" + exp
}

const hex = "0123456789abcdef"

// encodeString writes s with the minimal JSON escape set: '"' and '\\' get
// their standard escapes, every codepoint below U+0020 and U+007F emits as
// a lowercase \u00XX, and everything else passes through as raw UTF-8.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r < 0x20 || r == 0x7f:
			buf.WriteString(`\u00`)
			buf.WriteByte(hex[(r>>4)&0xf])
			buf.WriteByte(hex[r&0xf])
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
