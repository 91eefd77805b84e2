package http

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/milan604/fluenthttp/pkg/logger"
)

const instrumentationName = "github.com/milan604/fluenthttp/pkg/http"

// Client builds requests and is the single path through which they are sent.
type Client struct {
	cfg        *Config
	transport  Transport
	log        logger.LogManager
	recorder   Recorder
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	limiter    *rate.Limiter
	breaker    *BreakerSettings
}

// ClientOption configures the HTTP client.
type ClientOption func(*Client)

// WithTransport replaces the net/http transport.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHTTPClient sends requests through a custom http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.transport = NewNetTransport(hc)
	}
}

// WithLogger sets a logger for the client.
func WithLogger(l logger.LogManager) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithRecorder reports every attempt to r.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithTracer records a client span per attempt. Without it the global
// tracer provider is used.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithPropagator injects trace context into outgoing headers with p instead
// of the global propagator.
func WithPropagator(p propagation.TextMapPropagator) ClientOption {
	return func(c *Client) {
		c.propagator = p
	}
}

// WithRateLimit waits for a token before every transport call. rps <= 0
// disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreaker guards the transport with a circuit breaker.
func WithBreaker(s BreakerSettings) ClientOption {
	return func(c *Client) {
		c.breaker = &s
	}
}

// NewClient creates a client that reads its settings from cfg. A nil cfg
// uses NewConfig().
func NewClient(cfg *Config, opts ...ClientOption) *Client {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := &Client{
		cfg:      cfg,
		recorder: nopRecorder{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewNetTransport(nil)
	}
	if c.breaker != nil {
		c.transport = NewBreakerTransport(c.transport, *c.breaker)
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(instrumentationName)
	}
	if c.propagator == nil {
		c.propagator = otel.GetTextMapPropagator()
	}

	return c
}

// Config returns the configuration shared by this client's requests.
func (c *Client) Config() *Config { return c.cfg }

// Logger returns the client's logger.
func (c *Client) Logger() logger.LogManager { return c.log }

// send waits for the rate limiter, if any, and performs call.
func (c *Client) send(ctx context.Context, call *Call) (*Reply, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	return c.transport.Perform(ctx, call)
}
