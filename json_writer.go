package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// jsonObjectWriter builds a JSON object whose fields keep the order in
// which they were written. Its zero value is ready to use.
type jsonObjectWriter struct {
	bytes.Buffer
	err error
}

// appendRaw writes a key and an already encoded value.
func (w *jsonObjectWriter) appendRaw(key string, raw []byte) {
	k, _ := json.Marshal(key)
	w.Write(k)
	w.WriteByte(':')
	w.Write(raw)
	w.WriteByte(',')
}

// Append adds a new key-value pair to the JSON object. The value is marshaled
// to JSON using `json.Marshal`.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal value for key %q: %w", key, err)
		return w
	}
	w.appendRaw(key, raw)
	return w
}

// Optional appends a key-value pair only if the value is not its type's zero
// value. A nil pointer is omitted, a pointer to a zero value is not.
func (w *jsonObjectWriter) Optional(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

// PrefixFrom marshals v, which must encode as a JSON object, and appends
// each of its fields with the key prefixed and camelCased: field "asset"
// with prefix "fee" becomes "feeAsset". A nil v appends nothing.
func (w *jsonObjectWriter) PrefixFrom(prefix string, v any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	if rv := reflect.ValueOf(v); !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return w
	}
	raw, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal %q fields: %w", prefix, err)
		return w
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		w.err = fmt.Errorf("%q fields: not a JSON object", prefix)
		return w
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			w.err = fmt.Errorf("failed to read %q fields: %w", prefix, err)
			return w
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			w.err = fmt.Errorf("failed to read %q fields: %w", prefix, err)
			return w
		}
		w.appendRaw(prefix+upperFirst(tok.(string)), val)
	}
	return w
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// MarshalJSON finalizes the JSON object. It satisfies the `json.Marshaler` interface.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	content := bytes.TrimSuffix(w.Bytes(), []byte(","))
	out := make([]byte, 0, len(content)+2)
	out = append(out, '{')
	out = append(out, content...)
	return append(out, '}'), nil
}
