package http

import (
	"context"
	"sync"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/convert"
)

// Resend dispatches r again. Interceptors call it with the done they were
// handed once they have fixed the request up.
func (r *Request) Resend(ctx context.Context, done Completion) {
	r.client.dispatch(ctx, r, done)
}

// Send dispatches r and reports whether it completed without error.
// handler may be nil.
func (r *Request) Send(ctx context.Context, handler func(ok bool)) {
	r.client.dispatch(ctx, r, r.terminal(r.executor(), func(_ []byte, _ *Reply, err error) {
		if handler != nil {
			handler(err == nil)
		}
	}))
}

// GetData dispatches r and hands the raw response body to handler.
func (r *Request) GetData(ctx context.Context, handler func(data []byte, err error, r *Request)) {
	GetResponse[[]byte](ctx, r, convert.Bytes{}, handler)
}

// GetString dispatches r and hands the body as UTF-8 text to handler.
func (r *Request) GetString(ctx context.Context, handler func(s string, err error, r *Request)) {
	GetResponse[string](ctx, r, convert.Text{}, handler)
}

// GetDictionary dispatches r and hands the body as a JSON object to handler.
func (r *Request) GetDictionary(ctx context.Context, handler func(m map[string]any, err error, r *Request)) {
	GetResponse[map[string]any](ctx, r, convert.JSONObject{}, handler)
}

// GetArrayOfDictionaries dispatches r and hands the body as a JSON array of
// objects to handler.
func (r *Request) GetArrayOfDictionaries(ctx context.Context, handler func(list []map[string]any, err error, r *Request)) {
	GetArrayResponse[map[string]any](ctx, r, convert.JSONObject{}, handler)
}

// GetResponse dispatches r and converts the body with conv. A body conv
// cannot read is reported as a decode error.
func GetResponse[T any](ctx context.Context, r *Request, conv convert.Converter[T], handler func(v T, err error, r *Request)) {
	r.client.dispatch(ctx, r, r.terminal(r.executor(), func(body []byte, _ *Reply, err error) {
		v, err := decodeOne(r, conv, body, err)
		handler(v, err, r)
	}))
}

// GetArrayResponse is GetResponse for array bodies.
func GetArrayResponse[T any](ctx context.Context, r *Request, conv convert.Converter[T], handler func(v []T, err error, r *Request)) {
	r.client.dispatch(ctx, r, r.terminal(r.executor(), func(body []byte, _ *Reply, err error) {
		v, err := decodeMany(r, conv, body, err)
		handler(v, err, r)
	}))
}

type fetchResult[T any] struct {
	v   T
	err error
}

// Fetch dispatches r and waits for the converted result or for ctx to end.
// The conversion runs on the transport goroutine, never on the main executor,
// so Fetch may be called from a ThreadMain handler.
func Fetch[T any](ctx context.Context, r *Request, conv convert.Converter[T]) (T, error) {
	ch := make(chan fetchResult[T], 1)
	r.client.dispatch(ctx, r, r.terminal(Inline, func(body []byte, _ *Reply, err error) {
		v, err := decodeOne(r, conv, body, err)
		ch <- fetchResult[T]{v, err}
	}))
	return wait(ctx, ch)
}

// FetchArray is Fetch for array bodies.
func FetchArray[T any](ctx context.Context, r *Request, conv convert.Converter[T]) ([]T, error) {
	ch := make(chan fetchResult[[]T], 1)
	r.client.dispatch(ctx, r, r.terminal(Inline, func(body []byte, _ *Reply, err error) {
		v, err := decodeMany(r, conv, body, err)
		ch <- fetchResult[[]T]{v, err}
	}))
	return wait(ctx, ch)
}

func wait[T any](ctx context.Context, ch <-chan fetchResult[T]) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func decodeOne[T any](r *Request, conv convert.Converter[T], body []byte, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := conv.FromBytes(body)
	if !ok {
		derr := apperr.New(apperr.ErrorCodeDecode)
		r.setError(derr)
		return zero, derr
	}
	return v, nil
}

func decodeMany[T any](r *Request, conv convert.Converter[T], body []byte, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	v, ok := conv.ArrayFromBytes(body)
	if !ok {
		derr := apperr.New(apperr.ErrorCodeDecode)
		r.setError(derr)
		return nil, derr
	}
	return v, nil
}

// executor picks where handlers run from the request's response thread.
func (r *Request) executor() Executor {
	if r.ResponseThread() == ThreadBackground {
		return Inline
	}
	if e := r.client.cfg.MainExecutor(); e != nil {
		return e
	}
	return Inline
}

// terminal wraps handle so that it runs at most once, on exec, and marks the
// request completed. Later calls are logged and dropped.
func (r *Request) terminal(exec Executor, handle Completion) Completion {
	var once sync.Once
	return func(body []byte, reply *Reply, err error) {
		fired := false
		once.Do(func() {
			fired = true
			r.markCompleted()
			exec.Execute(func() { handle(body, reply, err) })
		})
		if !fired {
			r.client.log.WarnF("completion for %s %s (%s) called more than once", r.method, r.URL(), r.id)
		}
	}
}
