package http

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/milan604/fluenthttp/pkg/params"
	"github.com/milan604/fluenthttp/pkg/utils"
)

const (
	redacted         = "***"
	maxDebugBodyRune = 4096
)

var (
	sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie", "X-Api-Key"}
	sensitiveFields  = []string{"password", "token", "access_token", "refresh_token", "secret", "client_secret"}
)

// DebugInfo describes the request and, unless excludeResponse is set, its
// last response. Credentials in headers and JSON bodies are masked.
func (r *Request) DebugInfo(excludeResponse bool) string {
	out := r.outgoing()
	body := r.Body()

	var b strings.Builder
	fmt.Fprintf(&b, "----- %s -----\n", r.id)
	fmt.Fprintf(&b, "%s %s\n", out.method, out.url)
	if len(out.headers) > 0 {
		b.WriteString("HEADERS:\n")
		for _, k := range utils.SortedKeys(out.headers) {
			v := out.headers[k]
			if utils.EqualFoldAny(k, sensitiveHeaders...) {
				v = redacted
			}
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}
	if body != "" {
		fmt.Fprintf(&b, "BODY:\n  %s\n", utils.Truncate(redactBody(body), maxDebugBodyRune, true))
	}

	if !excludeResponse {
		if status := r.StatusCode(); status != 0 {
			fmt.Fprintf(&b, "RESPONSE: %d\n", status)
		}
		if s, ok := r.ResponseString(); ok && s != "" {
			fmt.Fprintf(&b, "  %s\n", utils.Truncate(RedactJSON(s), maxDebugBodyRune, true))
		}
		if err := r.ResponseError(); err != nil {
			fmt.Fprintf(&b, "ERROR: %v\n", err)
		}
	}
	b.WriteString("-----")
	return b.String()
}

// PrintDebugInfo writes DebugInfo to the client's logger at info level.
func (r *Request) PrintDebugInfo(excludeResponse bool) {
	r.client.log.Info(r.DebugInfo(excludeResponse))
}

// RedactJSON masks sensitive top-level fields of a JSON object. Anything
// else is returned unchanged.
func RedactJSON(body string) string {
	if !gjson.Valid(body) || !gjson.Parse(body).IsObject() {
		return body
	}
	out := body
	for _, field := range sensitiveFields {
		if !gjson.Get(out, field).Exists() {
			continue
		}
		if masked, err := sjson.Set(out, field, redacted); err == nil {
			out = masked
		}
	}
	return out
}

// redactBody masks sensitive fields of a JSON object or a form-encoded body.
func redactBody(body string) string {
	if gjson.Valid(body) {
		return RedactJSON(body)
	}
	form, err := params.Decode(body)
	if err != nil {
		return body
	}
	masked := false
	for _, field := range sensitiveFields {
		if _, ok := form[field]; ok {
			form[field] = redacted
			masked = true
		}
	}
	if !masked {
		return body
	}
	return params.Encode(form)
}
