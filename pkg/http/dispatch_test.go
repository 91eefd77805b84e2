package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/params"
)

func TestFormEncodingRoundTrip(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Post("https://api.example.com/login").
		SetEncoding(EncodingForm).
		AddParams(map[string]any{"user": "ana maria", "note": "a&b=c"})
	o := sendRaw(t, r)
	require.NoError(t, o.err)

	calls := ft.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ContentTypeForm, calls[0].Header.Get("Content-Type"))

	got, err := params.Decode(string(calls[0].Body))
	require.NoError(t, err)
	want := map[string]string{"user": "ana maria", "note": "a&b=c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("form body mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, string(calls[0].Body), r.Body())
}

func TestFormFallsBackToJSONForNonStrings(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Post("https://api.example.com/items").
		SetEncoding(EncodingForm).
		AddParams(map[string]any{"name": "x", "count": 3})
	require.NoError(t, sendRaw(t, r).err)

	call := ft.Calls()[0]
	assert.Equal(t, ContentTypeJSON, call.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"x","count":3}`, string(call.Body))
	assert.Equal(t, EncodingJSON, r.Encoding())
}

func TestJSONEncodingFailureNeverCallsTransport(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Post("https://api.example.com/items").AddParam("ch", make(chan int))
	o := sendRaw(t, r)
	assert.True(t, apperr.IsCode(o.err, apperr.ErrorCodeBodyEncoding))
	assert.Empty(t, ft.Calls())
	assert.Equal(t, o.err, r.ResponseError())
}

func TestMalformedURLNeverReachesTransport(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a url", "/relative/path", "http://[::1"} {
		t.Run(raw, func(t *testing.T) {
			var invoked atomic.Bool
			c := newTestClient(TransportFunc(func(context.Context, *Call) (*Reply, []byte, error) {
				invoked.Store(true)
				return &Reply{StatusCode: 200}, nil, nil
			}))

			r := c.Get(raw)
			o := sendRaw(t, r)
			require.Error(t, o.err)
			assert.True(t, apperr.IsCode(o.err, apperr.ErrorCodeInvalidURL))
			assert.Nil(t, o.reply)
			assert.False(t, invoked.Load())
			assert.Equal(t, StateCompleted, r.State())
		})
	}
}

func TestNotFoundCarriesStatusAndDetails(t *testing.T) {
	ft := &fakeTransport{status: http.StatusNotFound, body: []byte(`{"message":"no such item"}`)}
	c := newTestClient(ft)

	r := c.Get("https://api.example.com/items/9")
	o := sendRaw(t, r)
	require.Error(t, o.err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(o.err))
	assert.Equal(t, http.StatusNotFound, r.StatusCode())

	var ae *apperr.AppError
	require.ErrorAs(t, o.err, &ae)
	assert.Equal(t, apperr.ErrorCodeBadStatus.Code(), ae.Code)
	assert.Equal(t, "no such item", ae.Details["message"])
	assert.Equal(t, `{"message":"no such item"}`, string(o.body))
}

func TestErrorStatusWithoutJSONBody(t *testing.T) {
	ft := &fakeTransport{status: http.StatusBadGateway, body: []byte("<html>bad gateway</html>")}
	o := sendRaw(t, newTestClient(ft).Get("https://api.example.com"))

	var ae *apperr.AppError
	require.ErrorAs(t, o.err, &ae)
	assert.Equal(t, map[string]any{"Error": "Error Response Code"}, ae.Details)
	assert.Equal(t, http.StatusBadGateway, ae.HTTPStatus)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	o := sendRaw(t, newTestClient(&fakeTransport{err: boom}).Get("https://api.example.com"))
	assert.True(t, apperr.IsCode(o.err, apperr.ErrorCodeTransport))
	assert.ErrorIs(t, o.err, boom)
	assert.Nil(t, o.reply)
}

func TestResponseInterceptorInvokedOnceDespiteResend(t *testing.T) {
	ft := &fakeTransport{status: http.StatusUnauthorized}
	var invoked atomic.Int32
	rec := &countingRecorder{}

	ri := ResponseInterceptorFuncs{
		Should: func(reply *Reply) bool { return reply.StatusCode == http.StatusUnauthorized },
		Intercept: func(ctx context.Context, r *Request, done Completion) {
			invoked.Add(1)
			go r.Resend(ctx, done)
		},
	}
	c := NewClient(NewConfig(WithMainExecutor(Inline), WithLoggingLevel(LogNone), WithResponseInterceptor(ri)),
		WithTransport(ft), WithRecorder(rec))

	r := c.Get("https://api.example.com/me")
	o := sendRaw(t, r)

	assert.EqualValues(t, 1, invoked.Load())
	assert.Len(t, ft.Calls(), 2)
	assert.Equal(t, 2, r.Attempts())
	assert.True(t, r.WasIntercepted())
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusCode(o.err))
	assert.EqualValues(t, 1, rec.stage(StageResponse))
	assert.EqualValues(t, 2, rec.finished.Load())
}

func TestFailedResendClearsPreviousReply(t *testing.T) {
	boom := errors.New("connection refused")
	var calls atomic.Int32
	tr := TransportFunc(func(context.Context, *Call) (*Reply, []byte, error) {
		if calls.Add(1) == 1 {
			return &Reply{StatusCode: http.StatusUnauthorized}, []byte(`{"error":"expired"}`), nil
		}
		return nil, nil, boom
	})
	ri := ResponseInterceptorFuncs{
		Should:    func(reply *Reply) bool { return reply.StatusCode == http.StatusUnauthorized },
		Intercept: func(ctx context.Context, r *Request, done Completion) { go r.Resend(ctx, done) },
	}
	c := newTestClient(tr, WithResponseInterceptor(ri))

	r := c.Get("https://api.example.com/me")
	o := sendRaw(t, r)

	assert.ErrorIs(t, o.err, boom)
	assert.Nil(t, r.Reply())
	assert.Zero(t, r.StatusCode())
	assert.NotContains(t, r.DebugInfo(false), "RESPONSE: 401")
}

func TestRequestInterceptorPredicateConsultedOnce(t *testing.T) {
	ft := &fakeTransport{}
	var asked, invoked atomic.Int32
	ri := RequestInterceptorFuncs{
		Should: func(*Request) bool { asked.Add(1); return true },
		Intercept: func(ctx context.Context, r *Request, done Completion) {
			invoked.Add(1)
			r.AddHeader("X-Signed", "yes")
			go r.Resend(ctx, done)
		},
	}
	c := newTestClient(ft, WithRequestInterceptor(ri))

	r := c.Get("https://api.example.com")
	require.NoError(t, sendRaw(t, r).err)
	assert.EqualValues(t, 1, asked.Load())
	assert.EqualValues(t, 1, invoked.Load())
	require.Len(t, ft.Calls(), 1)
	assert.Equal(t, "yes", ft.Calls()[0].Header.Get("X-Signed"))
}

func TestAvoidFlagsSkipInterceptors(t *testing.T) {
	ft := &fakeTransport{status: http.StatusUnauthorized}
	ri := RequestInterceptorFuncs{
		Should:    func(*Request) bool { return true },
		Intercept: func(context.Context, *Request, Completion) { t.Error("request interceptor called") },
	}
	rsi := ResponseInterceptorFuncs{
		Should:    func(*Reply) bool { return true },
		Intercept: func(context.Context, *Request, Completion) { t.Error("response interceptor called") },
	}
	c := newTestClient(ft, WithRequestInterceptor(ri), WithResponseInterceptor(rsi))

	r := c.Get("https://api.example.com").
		SetAvoidRequestInterceptor(true).
		SetAvoidResponseInterceptor(true)
	o := sendRaw(t, r)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusCode(o.err))
	assert.False(t, r.WasIntercepted())
}

type observingInterceptor struct {
	ResponseInterceptorFuncs
	sent atomic.Int32
}

func (o *observingInterceptor) DidSend(*Request) { o.sent.Add(1) }

func TestSendObserverNotified(t *testing.T) {
	obs := &observingInterceptor{ResponseInterceptorFuncs: ResponseInterceptorFuncs{
		Should: func(*Reply) bool { return false },
	}}
	c := newTestClient(&fakeTransport{}, WithResponseInterceptor(obs))
	require.NoError(t, sendRaw(t, c.Get("https://api.example.com")).err)
	assert.EqualValues(t, 1, obs.sent.Load())
}

func TestIndicatorShownBeforeTransportAndHiddenOnce(t *testing.T) {
	ind := &recordingIndicator{}
	ft := &fakeTransport{}
	ft.before = func(*Call) { ind.add("transport") }
	c := newTestClient(ft, WithIndicator(ind))

	require.NoError(t, sendRaw(t, c.Get("https://api.example.com").SetLoadingTitle("Loading")).err)
	assert.Equal(t, []string{"show:Loading", "transport", "hide"}, ind.Events())
}

func TestIndicatorHiddenOnTransportError(t *testing.T) {
	ind := &recordingIndicator{}
	c := newTestClient(&fakeTransport{err: errors.New("down")}, WithIndicator(ind), WithDefaultLoadingTitle("Please wait"))

	require.Error(t, sendRaw(t, c.Get("https://api.example.com")).err)
	assert.Equal(t, []string{"show:Please wait", "hide"}, ind.Events())
}

func TestIndicatorUnusedWithoutTitle(t *testing.T) {
	ind := &recordingIndicator{}
	c := newTestClient(&fakeTransport{}, WithIndicator(ind))
	require.NoError(t, sendRaw(t, c.Get("https://api.example.com")).err)
	assert.Empty(t, ind.Events())
}

func TestRawBodyTakesPrecedence(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Put("https://api.example.com/doc").
		AddParam("ignored", "yes").
		SetBody([]byte("raw payload"))
	require.NoError(t, sendRaw(t, r).err)

	call := ft.Calls()[0]
	assert.Equal(t, "raw payload", string(call.Body))
	assert.Empty(t, call.Header.Get("Content-Type"))
	assert.Equal(t, "raw payload", r.Body())
}

func TestStandardHeadersFillMissingOnly(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft, WithStandardHeaders(map[string]string{"Accept": "application/json", "X-App": "demo"}))

	r := c.Get("https://api.example.com").AddHeader("X-App", "override")
	require.NoError(t, sendRaw(t, r).err)
	h := ft.Calls()[0].Header
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, "override", h.Get("X-App"))

	r2 := c.Get("https://api.example.com").SetAvoidStandardHeaders(true)
	require.NoError(t, sendRaw(t, r2).err)
	assert.Empty(t, ft.Calls()[1].Header.Get("Accept"))
}

func TestRequestIDHeader(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft, WithRequestIDHeader("X-Request-ID"))

	r := c.Get("https://api.example.com")
	require.NoError(t, sendRaw(t, r).err)
	assert.Equal(t, r.ID(), ft.Calls()[0].Header.Get("X-Request-ID"))
}

func TestParamsEncodedAsJSONByDefault(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Post("https://api.example.com").AddParams(map[string]any{"a": 1, "b": []string{"x"}})
	require.NoError(t, sendRaw(t, r).err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(ft.Calls()[0].Body, &got))
	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{"x"}}, got)
	assert.Equal(t, ContentTypeJSON, r.Headers()["Content-Type"])
}

func TestCallCarriesPolicyAndTimeout(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Delete("https://api.example.com/x").SetCachePolicy(CacheReturnElseLoad).SetTimeout(0)
	require.NoError(t, sendRaw(t, r).err)
	call := ft.Calls()[0]
	assert.Equal(t, MethodDelete, call.Method)
	assert.Equal(t, CacheReturnElseLoad, call.CachePolicy)
	assert.Equal(t, DefaultTimeout, call.Timeout)
}

func TestRateLimitHonoursContext(t *testing.T) {
	ft := &fakeTransport{}
	c := NewClient(NewConfig(WithMainExecutor(Inline), WithLoggingLevel(LogNone)),
		WithTransport(ft), WithRateLimit(0.001, 1))

	require.NoError(t, sendRaw(t, c.Get("https://api.example.com")).err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := make(chan error, 1)
	r := c.Get("https://api.example.com")
	c.dispatch(ctx, r, r.terminal(Inline, func(_ []byte, _ *Reply, err error) { ch <- err }))
	err := <-ch
	assert.True(t, apperr.IsCode(err, apperr.ErrorCodeTransport))
	assert.Len(t, ft.Calls(), 1)
}
