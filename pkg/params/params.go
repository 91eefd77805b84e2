// Package params turns key/value mappings into percent-encoded query strings
// and form bodies, and edits the query component of raw URL strings.
package params

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrNotString is returned by EncodeAny when a value cannot be form encoded.
var ErrNotString = errors.New("params: form values must be strings")

// Encode joins params as key=value pairs separated by '&'. Keys and values are
// percent-encoded; pairs are emitted in key order so output is stable.
func Encode(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// EncodeAny form-encodes a loosely typed mapping. Every value must be a string.
func EncodeAny(params map[string]any) (string, error) {
	strs := make(map[string]string, len(params))
	for k, v := range params {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%w: %q is %T", ErrNotString, k, v)
		}
		strs[k] = s
	}
	return Encode(strs), nil
}

// Decode splits a form body on '&' then '=' and percent-decodes both halves.
// Later duplicates win.
func Decode(body string) (map[string]string, error) {
	out := make(map[string]string)
	if body == "" {
		return out, nil
	}
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("params: decode key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("params: decode value for %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// AppendQuery appends the encoded params to rawURL, using '?' if the URL has
// no query yet and '&' otherwise. The URL is not parsed.
func AppendQuery(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + Encode(params)
}

// RemoveQueryKey drops every query pair named key from rawURL. The remaining
// pairs keep their original order and encoding. It reports whether anything
// was removed; an unparsable URL is returned unchanged.
func RemoveQueryKey(rawURL, key string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL, false
	}

	pairs := strings.Split(u.RawQuery, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		rawKey, _, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawKey)
		if err != nil {
			name = rawKey
		}
		if name == key {
			continue
		}
		kept = append(kept, pair)
	}
	if len(kept) == len(pairs) {
		return rawURL, false
	}
	u.RawQuery = strings.Join(kept, "&")
	return u.String(), true
}
