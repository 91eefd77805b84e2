package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/milan604/fluenthttp/pkg/version"
)

// Call is a fully prepared exchange handed to a Transport.
type Call struct {
	Method      Method
	URL         string
	Header      http.Header
	Body        []byte
	CachePolicy CachePolicy
	Timeout     time.Duration
}

// Reply is the response metadata of an exchange.
type Reply struct {
	StatusCode int
	Status     string
	Header     http.Header
	Proto      string
	URL        string
}

// IsSuccess reports a 2xx status.
func (r *Reply) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// DefaultMaxBodySize caps how much of a response NetTransport reads.
const DefaultMaxBodySize int64 = 32 << 20

// NetTransport performs calls with a net/http client.
type NetTransport struct {
	client      *http.Client
	maxBodySize int64
}

// NewNetTransport wraps c, or a fresh http.Client when c is nil. The
// per-call timeout is enforced through the request context, so c.Timeout
// may stay zero.
func NewNetTransport(c *http.Client) *NetTransport {
	if c == nil {
		c = &http.Client{}
	}
	return &NetTransport{client: c, maxBodySize: DefaultMaxBodySize}
}

// WithMaxBodySize returns t limited to n bytes per response body.
func (t *NetTransport) WithMaxBodySize(n int64) *NetTransport {
	if n > 0 {
		t.maxBodySize = n
	}
	return t
}

func (t *NetTransport) Perform(ctx context.Context, call *Call) (*Reply, []byte, error) {
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(call.Body) > 0 {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, string(call.Method), call.URL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range call.Header {
		req.Header[k] = append([]string(nil), vals...)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", version.UserAgent())
	}
	applyCachePolicy(req.Header, call.CachePolicy)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	reply := &Reply{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Proto:      resp.Proto,
		URL:        resp.Request.URL.String(),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize))
	if err != nil {
		return reply, data, fmt.Errorf("read response body: %w", err)
	}
	return reply, data, nil
}

// applyCachePolicy translates p into request cache directives unless the
// caller already set Cache-Control.
func applyCachePolicy(h http.Header, p CachePolicy) {
	if h.Get("Cache-Control") != "" {
		return
	}
	switch p {
	case CacheReloadIgnoringLocalData:
		h.Set("Cache-Control", "no-cache")
		h.Set("Pragma", "no-cache")
	case CacheReturnElseLoad:
		h.Set("Cache-Control", "max-stale")
	case CacheReturnDontLoad:
		h.Set("Cache-Control", "only-if-cached")
	}
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, call *Call) (*Reply, []byte, error)

func (f TransportFunc) Perform(ctx context.Context, call *Call) (*Reply, []byte, error) {
	return f(ctx, call)
}
