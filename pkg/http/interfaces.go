package http

import (
	"context"
	"time"
)

// Completion receives the raw outcome of one send attempt.
type Completion func(body []byte, reply *Reply, err error)

// Transport performs a single HTTP exchange. Implementations must return
// exactly once; reply is nil when no response was received.
type Transport interface {
	Perform(ctx context.Context, call *Call) (reply *Reply, body []byte, err error)
}

// Indicator shows and hides a loading indicator around requests that have a
// loading title. Hide must be safe to call when nothing is shown.
type Indicator interface {
	Show(title string)
	Hide()
}

// RequestInterceptor may take over a request before it is sent. Once
// InterceptRequest is called the interceptor owns done and must eventually
// call it, typically after Resend.
type RequestInterceptor interface {
	ShouldInterceptRequest(r *Request) bool
	InterceptRequest(ctx context.Context, r *Request, done Completion)
}

// ResponseInterceptor may take over a request after its response arrives,
// for example to refresh an expired credential and resend.
type ResponseInterceptor interface {
	ShouldInterceptResponse(reply *Reply) bool
	InterceptResponse(ctx context.Context, r *Request, done Completion)
}

// SendObserver is an optional extension of ResponseInterceptor notified
// whenever a response arrives. It cannot alter the flow.
type SendObserver interface {
	DidSend(r *Request)
}

// Executor runs completion handlers.
type Executor interface {
	Execute(fn func())
}

// Recorder receives per-attempt measurements from the dispatcher.
type Recorder interface {
	RequestStarted(method string)
	RequestFinished(method string, status int, err error, elapsed time.Duration)
	Intercepted(stage string)
}

// Interception stages reported to Recorder.Intercepted.
const (
	StageRequest  = "request"
	StageResponse = "response"
)

type nopRecorder struct{}

func (nopRecorder) RequestStarted(string)                             {}
func (nopRecorder) RequestFinished(string, int, error, time.Duration) {}
func (nopRecorder) Intercepted(string)                                {}

// RequestInterceptorFuncs adapts two functions to RequestInterceptor.
type RequestInterceptorFuncs struct {
	Should    func(r *Request) bool
	Intercept func(ctx context.Context, r *Request, done Completion)
}

func (f RequestInterceptorFuncs) ShouldInterceptRequest(r *Request) bool {
	return f.Should != nil && f.Should(r)
}

func (f RequestInterceptorFuncs) InterceptRequest(ctx context.Context, r *Request, done Completion) {
	f.Intercept(ctx, r, done)
}

// ResponseInterceptorFuncs adapts two functions to ResponseInterceptor.
type ResponseInterceptorFuncs struct {
	Should    func(reply *Reply) bool
	Intercept func(ctx context.Context, r *Request, done Completion)
}

func (f ResponseInterceptorFuncs) ShouldInterceptResponse(reply *Reply) bool {
	return f.Should != nil && f.Should(reply)
}

func (f ResponseInterceptorFuncs) InterceptResponse(ctx context.Context, r *Request, done Completion) {
	f.Intercept(ctx, r, done)
}

// Ensure implementations satisfy their interfaces.
var (
	_ Transport           = (*NetTransport)(nil)
	_ Transport           = (*BreakerTransport)(nil)
	_ Executor            = (*Queue)(nil)
	_ Executor            = ExecutorFunc(nil)
	_ RequestInterceptor  = RequestInterceptorFuncs{}
	_ ResponseInterceptor = ResponseInterceptorFuncs{}
	_ Recorder            = nopRecorder{}
)
