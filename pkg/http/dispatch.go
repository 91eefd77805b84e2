package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/convert"
	"github.com/milan604/fluenthttp/pkg/logger"
	"github.com/milan604/fluenthttp/pkg/observability"
	"github.com/milan604/fluenthttp/pkg/params"
	"github.com/milan604/fluenthttp/pkg/utils"
)

// attempt carries what one transport call needs after the request has been
// prepared.
type attempt struct {
	call          *Call
	indicator     Indicator
	avoidResponse bool
	level         LoggingLevel
}

// dispatch prepares r and performs it. done is called exactly once per
// attempt unless an interceptor takes the request over, in which case the
// interceptor owns done.
func (c *Client) dispatch(ctx context.Context, r *Request, done Completion) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithRequestID(ctx, r.id)
	level := c.cfg.LoggingLevel()
	out := r.outgoing()
	r.markSent()

	if level >= LogDebug {
		c.log.DebugFCtx(ctx, "preparing %s %s", out.method, out.url)
	}

	if err := validateURL(out.url); err != nil {
		r.setError(err)
		c.logOutcome(ctx, r, level, err)
		done(nil, nil, err)
		return
	}

	if ri := c.cfg.RequestInterceptor(); ri != nil && !out.avoidRequestInterceptor &&
		!r.WasIntercepted() && ri.ShouldInterceptRequest(r) && r.markIntercepted() {
		if level >= LogDebug {
			c.log.DebugFCtx(ctx, "request %s %s intercepted before send", out.method, out.url)
		}
		c.recorder.Intercepted(StageRequest)
		observability.AddSpanEvent(ctx, "fluenthttp.intercepted", observability.AttrStage.String(StageRequest))
		ri.InterceptRequest(ctx, r, done)
		return
	}

	if !out.avoidStandardHeaders {
		if std := c.cfg.StandardHeaders(); len(std) > 0 {
			out.headers = r.fillHeaders(std)
		}
	}
	if name := c.cfg.RequestIDHeader(); name != "" {
		if _, ok := out.headers[name]; !ok {
			out.headers[name] = r.id
		}
	}

	body, err := c.encodeBody(ctx, r, &out, level)
	if err != nil {
		r.setError(err)
		c.logOutcome(ctx, r, level, err)
		done(nil, nil, err)
		return
	}

	var indicator Indicator
	if out.loadingTitle != "" {
		if indicator = c.cfg.Indicator(); indicator != nil {
			indicator.Show(out.loadingTitle)
		}
	}

	header := make(http.Header, len(out.headers))
	for k, v := range out.headers {
		header.Set(k, v)
	}
	a := attempt{
		call: &Call{
			Method:      out.method,
			URL:         out.url,
			Header:      header,
			Body:        body,
			CachePolicy: out.cachePolicy,
			Timeout:     out.timeout,
		},
		indicator:     indicator,
		avoidResponse: out.avoidResponseInterceptor,
		level:         level,
	}

	if level >= LogDebug {
		c.log.DebugFCtx(ctx, "sending %s %s", out.method, out.url)
	}
	go c.perform(ctx, r, a, done)
}

// perform runs on its own goroutine: it calls the transport, records the
// outcome on r and routes it to the response interceptor or to done.
func (c *Client) perform(ctx context.Context, r *Request, a attempt, done Completion) {
	n := r.nextAttempt()
	method := string(a.call.Method)
	ctx = context.WithValue(ctx, logger.AttemptKey, n)
	ctx, span := c.tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.AttrHTTPMethod.String(method),
			observability.AttrHTTPURL.String(a.call.URL),
			observability.AttrRequestID.String(r.id),
			observability.AttrAttempt.Int(n),
		),
	)
	c.propagator.Inject(ctx, propagation.HeaderCarrier(a.call.Header))

	c.recorder.RequestStarted(method)
	start := time.Now()
	reply, body, err := c.send(ctx, a.call)
	elapsed := time.Since(start)
	if err != nil {
		err = apperr.FromError(apperr.ErrorCodeTransport, err)
	}

	r.recordResponse(reply, body, err)
	if a.indicator != nil {
		a.indicator.Hide()
	}

	status := 0
	if reply != nil {
		status = reply.StatusCode
		span.SetAttributes(observability.AttrHTTPStatusCode.Int(status))

		ri := c.cfg.ResponseInterceptor()
		if obs, ok := ri.(SendObserver); ok {
			obs.DidSend(r)
		}
		if ri != nil && !a.avoidResponse && !r.WasIntercepted() &&
			ri.ShouldInterceptResponse(reply) && r.markIntercepted() {
			if a.level >= LogDebug {
				c.log.DebugFCtx(ctx, "response %d for %s %s intercepted", status, method, a.call.URL)
			}
			span.SetAttributes(observability.AttrIntercepted.Bool(true))
			observability.AddSpanEvent(ctx, "fluenthttp.intercepted", observability.AttrStage.String(StageResponse))
			span.End()
			c.recorder.RequestFinished(method, status, err, elapsed)
			c.recorder.Intercepted(StageResponse)
			ri.InterceptResponse(ctx, r, done)
			return
		}

		if !reply.IsSuccess() {
			err = statusError(reply, body, err)
			r.setError(err)
		}
	}

	if err != nil {
		observability.AddSpanAttributes(ctx, observability.AttrErrorCode.String(observability.Outcome(err)))
		observability.RecordSpanError(ctx, err)
	}
	span.End()
	c.recorder.RequestFinished(method, status, err, elapsed)
	c.logOutcome(ctx, r, a.level, err)
	done(body, reply, err)
}

// encodeBody resolves what goes on the wire: the raw body verbatim, else the
// params in the request's encoding. Form encoding falls back to JSON when a
// param value is not a string.
func (c *Client) encodeBody(ctx context.Context, r *Request, out *outgoing, level LoggingLevel) ([]byte, error) {
	if out.body != nil {
		return out.body, nil
	}
	if len(out.params) == 0 {
		return nil, nil
	}

	if out.encoding == EncodingForm {
		encoded, err := params.EncodeAny(out.params)
		if err == nil {
			data := []byte(encoded)
			r.applyEncoded(data, EncodingForm)
			setHeaderFold(out.headers, "Content-Type", ContentTypeForm)
			return data, nil
		}
		if level >= LogDebug {
			c.log.DebugFCtx(ctx, "form encoding %s: %v; sending JSON instead", out.url, err)
		}
	}

	data, err := json.Marshal(out.params)
	if err != nil {
		return nil, apperr.FromError(apperr.ErrorCodeBodyEncoding, err)
	}
	r.applyEncoded(data, EncodingJSON)
	setHeaderFold(out.headers, "Content-Type", ContentTypeJSON)
	return data, nil
}

func (c *Client) logOutcome(ctx context.Context, r *Request, level LoggingLevel, err error) {
	switch {
	case err != nil && level >= LogErrors:
		c.log.ErrorFCtx(ctx, "request failed: %v\n%s", err, r.DebugInfo(false))
	case err == nil && level >= LogRequests:
		c.log.InfoFCtx(ctx, "request completed\n%s", r.DebugInfo(false))
	}
}

// validateURL accepts absolute URLs with a scheme and a host.
func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return apperr.New(apperr.ErrorCodeInvalidURL).WithDetail("url", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return apperr.FromError(apperr.ErrorCodeInvalidURL, err).WithDetail("url", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return apperr.New(apperr.ErrorCodeInvalidURL).WithDetail("url", raw)
	}
	return nil
}

// statusError describes a non-2xx reply. Its details are the JSON object the
// server returned, or a generic marker when the body is not an object.
func statusError(reply *Reply, body []byte, cause error) error {
	details, ok := convert.JSONObject{}.FromBytes(body)
	if !ok {
		details = map[string]any{"Error": apperr.ErrorCodeBadStatus.Message()}
	}
	e := apperr.New(apperr.ErrorCodeBadStatus).
		WithStatus(reply.StatusCode).
		WithDetails(details)
	if cause != nil {
		var ae *apperr.AppError
		if errors.As(cause, &ae) && ae.Unwrap() != nil {
			cause = ae.Unwrap()
		}
		e = e.Wrap(cause)
	}
	return e
}

func (r *Request) nextAttempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	return r.attempts
}

// fillHeaders adds std entries whose keys are absent and returns the result.
func (r *Request) fillHeaders(std map[string]string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	utils.FillMissing(r.headers, std)
	return utils.CloneMap(r.headers)
}

// applyEncoded records a body encoded from params along with its content type.
func (r *Request) applyEncoded(data []byte, enc Encoding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sentBody = data
	r.encoding = enc
	setHeaderFold(r.headers, "Content-Type", enc.ContentType())
}

// setHeaderFold sets key in h, dropping entries that differ from it only by case.
func setHeaderFold(h map[string]string, key, value string) {
	for k := range h {
		if k != key && strings.EqualFold(k, key) {
			delete(h, k)
		}
	}
	h[key] = value
}
