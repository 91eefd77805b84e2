// Package convert defines how a response body becomes a typed value.
//
// A Converter knows how to build one T, or a slice of T, from the raw bytes
// of a response. The dispatcher is written once against this interface and
// never needs to know the eventual response shape. Conversions never panic;
// failure is reported by the boolean result.
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Converter builds values of T from raw response bytes.
type Converter[T any] interface {
	// FromBytes produces exactly one T, or false on any parse failure.
	FromBytes(data []byte) (T, bool)
	// ArrayFromBytes produces a sequence of T, or false on any parse failure.
	ArrayFromBytes(data []byte) ([]T, bool)
}

// Compile-time checks for the built-in converters.
var (
	_ Converter[[]byte]         = Bytes{}
	_ Converter[string]         = Text{}
	_ Converter[int64]          = Int64{}
	_ Converter[bool]           = Bool{}
	_ Converter[map[string]any] = JSONObject{}
)

// Bytes returns the body untouched. It has no array form.
type Bytes struct{}

func (Bytes) FromBytes(data []byte) ([]byte, bool) { return data, data != nil }

func (Bytes) ArrayFromBytes([]byte) ([][]byte, bool) { return nil, false }

// Text decodes the body as UTF-8. The array form splits on commas.
type Text struct{}

func (Text) FromBytes(data []byte) (string, bool) {
	if data == nil || !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func (t Text) ArrayFromBytes(data []byte) ([]string, bool) {
	s, ok := t.FromBytes(data)
	if !ok {
		return nil, false
	}
	return strings.Split(s, ","), true
}

// Int64 parses the body text as a base-10 64-bit integer. The array form
// splits on commas and fails if any element does not parse.
type Int64 struct{}

func (Int64) FromBytes(data []byte) (int64, bool) {
	s, ok := Text{}.FromBytes(data)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (Int64) ArrayFromBytes(data []byte) ([]int64, bool) {
	parts, ok := Text{}.ArrayFromBytes(data)
	if !ok {
		return nil, false
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// Bool reports success for any completed request; the body is ignored.
type Bool struct{}

func (Bool) FromBytes([]byte) (bool, bool) { return true, true }

func (Bool) ArrayFromBytes([]byte) ([]bool, bool) { return nil, false }

// JSONObject decodes a JSON object into a generic map. The array form
// requires a top-level array whose elements are all objects.
type JSONObject struct{}

func (JSONObject) FromBytes(data []byte) (map[string]any, bool) {
	res, ok := parseJSON(data)
	if !ok || !res.IsObject() {
		return nil, false
	}
	m, ok := res.Value().(map[string]any)
	return m, ok
}

func (JSONObject) ArrayFromBytes(data []byte) ([]map[string]any, bool) {
	res, ok := parseJSON(data)
	if !ok || !res.IsArray() {
		return nil, false
	}
	items := res.Array()
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			return nil, false
		}
		m, ok := item.Value().(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// JSON unmarshals the body into T with encoding/json.
type JSON[T any] struct{}

func (JSON[T]) FromBytes(data []byte) (T, bool) {
	var v T
	if len(data) == 0 {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

func (JSON[T]) ArrayFromBytes(data []byte) ([]T, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var v []T
	if err := json.Unmarshal(data, &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// parseJSON validates data before parsing; gjson tolerates invalid input
// silently so validation has to come first.
func parseJSON(data []byte) (gjson.Result, bool) {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(data), true
}
