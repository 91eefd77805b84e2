package http

import (
	"encoding/json"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/convert"
	"github.com/milan604/fluenthttp/pkg/params"
	"github.com/milan604/fluenthttp/pkg/utils"
)

// Request describes one logical HTTP request. Setters return the receiver so
// calls can be chained, and a terminal operation such as Send or GetData
// dispatches it through the Client that built it.
//
// A Request is safe for use by several goroutines, which matters because
// interceptors may resend it from their own goroutines.
type Request struct {
	client *Client
	id     string

	mu             sync.Mutex
	url            string
	method         Method
	headers        map[string]string
	params         map[string]any
	body           []byte
	sentBody       []byte
	encoding       Encoding
	cachePolicy    CachePolicy
	timeout        time.Duration
	loadingTitle   string
	responseThread ResponseThread

	avoidRequestInterceptor  bool
	avoidResponseInterceptor bool
	avoidStandardHeaders     bool

	state       State
	intercepted bool
	attempts    int

	responseData   []byte
	responseString string
	hasString      bool
	responseErr    error
	reply          *Reply
}

// NewRequest builds a request for rawURL with the client's current defaults.
func (c *Client) NewRequest(rawURL string, method Method) *Request {
	d := c.cfg.snapshot()
	r := &Request{
		client:         c,
		id:             uuid.NewString(),
		url:            rawURL,
		method:         method,
		headers:        make(map[string]string),
		params:         make(map[string]any),
		encoding:       d.encoding,
		cachePolicy:    d.cachePolicy,
		timeout:        d.timeout,
		loadingTitle:   d.loadingTitle,
		responseThread: d.responseThread,
	}
	runtime.SetFinalizer(r, warnUnsent)
	return r
}

// warnUnsent reports requests that were built but never dispatched.
func warnUnsent(r *Request) {
	if r.State() != StateNotSent || r.client == nil {
		return
	}
	r.client.log.WarnF("%v: %s %s (%s)", apperr.New(apperr.ErrorCodeUnsent), r.method, r.url, r.id)
}

func (c *Client) Get(rawURL string) *Request    { return c.NewRequest(rawURL, MethodGet) }
func (c *Client) Post(rawURL string) *Request   { return c.NewRequest(rawURL, MethodPost) }
func (c *Client) Put(rawURL string) *Request    { return c.NewRequest(rawURL, MethodPut) }
func (c *Client) Delete(rawURL string) *Request { return c.NewRequest(rawURL, MethodDelete) }
func (c *Client) Patch(rawURL string) *Request  { return c.NewRequest(rawURL, MethodPatch) }

// AddParam sets a body parameter.
func (r *Request) AddParam(key string, value any) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[key] = value
	return r
}

// AddParams merges p into the body parameters; later values win.
func (r *Request) AddParams(p map[string]any) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range p {
		r.params[k] = v
	}
	return r
}

// AddHeader sets a header, replacing any value stored under the same key.
func (r *Request) AddHeader(key, value string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers[key] = value
	return r
}

// RemoveHeader drops every header whose name matches key case-insensitively.
func (r *Request) RemoveHeader(key string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.headers {
		if strings.EqualFold(k, key) {
			delete(r.headers, k)
		}
	}
	return r
}

func (r *Request) AddHeaders(h map[string]string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range h {
		r.headers[k] = v
	}
	return r
}

// AddURLParam appends key=value to the URL query.
func (r *Request) AddURLParam(key, value string) *Request {
	return r.AddURLParams(map[string]string{key: value})
}

// AddURLParams appends p to the URL query, starting it with '?' or continuing
// it with '&'.
func (r *Request) AddURLParams(p map[string]string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.url = params.AppendQuery(r.url, p)
	return r
}

// RemoveURLParam drops every occurrence of key from the URL query.
func (r *Request) RemoveURLParam(key string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := params.RemoveQueryKey(r.url, key); ok {
		r.url = u
	}
	return r
}

// SetBody sets a raw body. It is sent verbatim and params are ignored.
func (r *Request) SetBody(body []byte) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = body
	return r
}

func (r *Request) SetEncoding(e Encoding) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoding = e
	return r
}

func (r *Request) SetCachePolicy(p CachePolicy) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cachePolicy = p
	return r
}

// SetTimeout sets the request timeout. d <= 0 uses the client default.
func (r *Request) SetTimeout(d time.Duration) *Request {
	def := r.client.cfg.DefaultTimeout()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = utils.PositiveOr(d, def)
	return r
}

// SetLoadingTitle shows the indicator with title while the request runs.
// An empty title disables the indicator.
func (r *Request) SetLoadingTitle(title string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadingTitle = title
	return r
}

func (r *Request) SetResponseThread(t ResponseThread) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responseThread = t
	return r
}

func (r *Request) SetAvoidStandardHeaders(avoid bool) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.avoidStandardHeaders = avoid
	return r
}

func (r *Request) SetAvoidRequestInterceptor(avoid bool) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.avoidRequestInterceptor = avoid
	return r
}

func (r *Request) SetAvoidResponseInterceptor(avoid bool) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.avoidResponseInterceptor = avoid
	return r
}

// SetObject merges the dictionary form of obj into the params and switches
// the request to JSON encoding.
func SetObject[T any](r *Request, obj T, m convert.Mapper[T]) *Request {
	dict := m.ToDictionary(obj)
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range dict {
		r.params[k] = v
	}
	r.encoding = EncodingJSON
	return r
}

// SetObjects sends objs as a JSON array body.
func SetObjects[T any](r *Request, objs []T, m convert.Mapper[T]) *Request {
	list := make([]map[string]any, 0, len(objs))
	for _, o := range objs {
		list = append(list, m.ToDictionary(o))
	}
	data, err := json.Marshal(list)
	if err != nil {
		r.client.log.ErrorF("encode objects for %s: %v", r.URL(), err)
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = data
	r.headers["Content-Type"] = ContentTypeJSON
	return r
}

// Reset clears the response, the interception guard and the lifecycle state
// so the request can be sent again as a new logical request.
func (r *Request) Reset() *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateNotSent
	r.intercepted = false
	r.attempts = 0
	r.sentBody = nil
	r.responseData = nil
	r.responseString = ""
	r.hasString = false
	r.responseErr = nil
	r.reply = nil
	return r
}

func (r *Request) ID() string { return r.id }

func (r *Request) Client() *Client { return r.client }

func (r *Request) Method() Method { return r.method }

func (r *Request) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// Headers returns a copy of the request headers.
func (r *Request) Headers() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return utils.CloneMap(r.headers)
}

// Params returns a copy of the body parameters.
func (r *Request) Params() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return utils.CloneMap(r.params)
}

// Body returns the body as text for debugging: the raw body when set,
// otherwise what was last encoded from params.
func (r *Request) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.body != nil {
		return string(r.body)
	}
	return string(r.sentBody)
}

func (r *Request) Encoding() Encoding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoding
}

func (r *Request) CachePolicy() CachePolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cachePolicy
}

func (r *Request) Timeout() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeout
}

func (r *Request) LoadingTitle() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadingTitle
}

func (r *Request) ResponseThread() ResponseThread {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseThread
}

func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// WasIntercepted reports whether an interceptor has taken this request over.
func (r *Request) WasIntercepted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intercepted
}

// Attempts counts transport calls made for this request.
func (r *Request) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Request) ResponseData() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseData
}

// ResponseString is the response body as text; ok is false when the body is
// missing or not valid UTF-8.
func (r *Request) ResponseString() (s string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseString, r.hasString
}

func (r *Request) ResponseError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseErr
}

func (r *Request) Reply() *Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reply
}

// StatusCode is the HTTP status of the last response, or 0.
func (r *Request) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reply == nil {
		return 0
	}
	return r.reply.StatusCode
}

// markIntercepted consumes the interception guard. It succeeds at most once
// per logical request.
func (r *Request) markIntercepted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intercepted {
		return false
	}
	r.intercepted = true
	r.state = StateIntercepted
	return true
}

func (r *Request) markSent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateNotSent {
		r.state = StateSent
	}
}

func (r *Request) markCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateCompleted
}

func (r *Request) setError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responseErr = err
}

func (r *Request) recordResponse(reply *Reply, body []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responseData = body
	r.responseErr = err
	r.responseString, r.hasString = "", false
	if body != nil && utf8.Valid(body) {
		r.responseString, r.hasString = string(body), true
	}
	r.reply = reply
}

// outgoing is the snapshot of a request used for one transport call.
type outgoing struct {
	url          string
	method       Method
	headers      map[string]string
	params       map[string]any
	body         []byte
	encoding     Encoding
	cachePolicy  CachePolicy
	timeout      time.Duration
	loadingTitle string
	thread       ResponseThread

	avoidRequestInterceptor  bool
	avoidResponseInterceptor bool
	avoidStandardHeaders     bool
}

func (r *Request) outgoing() outgoing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return outgoing{
		url:                      strings.TrimSpace(r.url),
		method:                   r.method,
		headers:                  utils.CloneMap(r.headers),
		params:                   utils.CloneMap(r.params),
		body:                     r.body,
		encoding:                 r.encoding,
		cachePolicy:              r.cachePolicy,
		timeout:                  r.timeout,
		loadingTitle:             r.loadingTitle,
		thread:                   r.responseThread,
		avoidRequestInterceptor:  r.avoidRequestInterceptor,
		avoidResponseInterceptor: r.avoidResponseInterceptor,
		avoidStandardHeaders:     r.avoidStandardHeaders,
	}
}
