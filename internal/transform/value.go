package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Value is a decoded JSON value: nil, bool, float64, string, []Value or *Row.
// Every component in this package operates on this representation; documents are
// never handed around as raw bytes or host-native structs.
type Value = any

// Row is an ordered mapping from field name to Value. Insertion order is
// preserved because it becomes CSV column order downstream. Objects inside a
// document decode to *Row as well, so a row and a nested object are the same type.
type Row struct {
	keys   []string
	fields map[string]Value
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{fields: make(map[string]Value)}
}

// Set stores a value under name, appending the key on first insert.
func (r *Row) Set(name string, v Value) {
	if _, ok := r.fields[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.fields[name] = v
}

// Get returns the value stored under name.
func (r *Row) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Has reports whether name is present.
func (r *Row) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Keys returns field names in insertion order. The slice is shared; callers
// must not mutate it.
func (r *Row) Keys() []string {
	return r.keys
}

// Len returns the number of fields.
func (r *Row) Len() int {
	return len(r.keys)
}

// Clone returns a shallow copy of the row.
func (r *Row) Clone() *Row {
	out := &Row{
		keys:   append([]string(nil), r.keys...),
		fields: make(map[string]Value, len(r.fields)),
	}
	for k, v := range r.fields {
		out.fields[k] = v
	}
	return out
}

// MarshalJSON encodes the row as a JSON object preserving insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := EncodeValue(r.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the row, preserving key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	v, err := ParseDocument(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Row)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", TypeName(v))
	}
	*r = *obj
	return nil
}

// ParseDocument decodes raw JSON into a Value, keeping object field order.
func ParseDocument(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	// Trailing garbage after the top-level value is a malformed document.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode document: unexpected trailing content")
	}
	return v, nil
}

// DecodeDocument reads and decodes a full JSON document from r.
func DecodeDocument(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return ParseDocument(data)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			row := NewRow()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				row.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return row, nil
		case '[':
			var arr []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			if arr == nil {
				arr = []Value{}
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", t.String(), err)
		}
		return f, nil
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// EncodeValue encodes a Value back to JSON. Rows marshal in field order.
func EncodeValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return []byte("null"), nil
	case *Row:
		return t.MarshalJSON()
	case []Value:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := EncodeValue(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return []byte(strconv.FormatInt(int64(t), 10)), nil
		}
		return json.Marshal(t)
	default:
		return json.Marshal(v)
	}
}

// TypeName reports the JSON type of a value, for error messages and schemas.
func TypeName(v Value) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		if t == math.Trunc(t) {
			return "integer"
		}
		return "number"
	case []Value:
		return "array"
	case *Row:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Numeric coerces a value to float64. Numeric strings are accepted because API
// payloads routinely carry numbers as text.
func Numeric(v Value) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ValueEqual compares two values by JSON semantics. Objects compare by field
// set regardless of order; numbers compare by float value.
func ValueEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []Value:
		bv, ok := b.([]Value)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Row:
		bv, ok := b.(*Row)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			other, present := bv.Get(k)
			if !present || !ValueEqual(av.fields[k], other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// GroupKey renders a value as a deterministic string usable as a map key.
func GroupKey(v Value) string {
	b, err := EncodeValue(v)
	if err != nil {
		return fmt.Sprintf("!%v", v)
	}
	return string(b)
}

// LookupPointer resolves a JSON-Pointer-like path ("/results/forecast", "/0/items")
// against a document. The empty path returns the document itself.
func LookupPointer(doc Value, path string) (Value, bool) {
	if path == "" || path == "/" {
		return doc, true
	}
	cur := doc
	for _, token := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		switch node := cur.(type) {
		case *Row:
			next, ok := node.Get(token)
			if !ok {
				return nil, false
			}
			cur = next
		case []Value:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// escapePointerToken escapes a field name per RFC 6901 for use in a pointer path.
func escapePointerToken(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
