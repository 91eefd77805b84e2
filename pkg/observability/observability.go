package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/fluenthttp/pkg/config"
	"github.com/milan604/fluenthttp/pkg/logger"
)

// ObservabilityIface defines the interface for observability operations
type ObservabilityIface interface {
	// StartSpan creates a new span for tracing
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)

	// Shutdown flushes pending spans and stops the exporter
	Shutdown(ctx context.Context) error

	// GetTracer returns the tracer instance
	GetTracer() trace.Tracer

	// Propagator injects trace context into outgoing requests
	Propagator() propagation.TextMapPropagator
}

// Observability owns the tracer provider used for client spans.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
	log            logger.LogManager
	serviceName    string
	serviceVersion string
}

type options struct {
	exporter   sdktrace.SpanExporter
	setGlobals bool
	syncExport bool
}

// Option customizes New.
type Option func(*options)

// WithExporter sends spans to exp instead of the OTLP HTTP exporter.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithSyncExport exports each span as it ends. Meant for tests.
func WithSyncExport() Option {
	return func(o *options) { o.syncExport = true }
}

// WithoutGlobals leaves the global tracer provider and propagator alone.
func WithoutGlobals() Option {
	return func(o *options) { o.setGlobals = false }
}

// New sets up tracing from the "observability" config section.
func New(log logger.LogManager, cfg *config.Config, opts ...Option) (*Observability, error) {
	o := options{setGlobals: true}
	for _, opt := range opts {
		opt(&o)
	}

	serviceName := cfg.GetStringD(config.KeyServiceName, "fluenthttp")
	serviceVersion := cfg.GetStringD(config.KeyServiceVersion, "dev")
	endpoint := cfg.GetStringD(config.KeyOTLPEndpoint, "localhost:4318")
	ratio := cfg.GetFloat64D(config.KeySampleRatio, 1)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter := o.exporter
	if exporter == nil {
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.GetBoolD(config.KeyOTLPInsecure, true) {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(context.Background(), httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	}

	spanProcessor := sdktrace.WithBatcher(exporter)
	if o.syncExport {
		spanProcessor = sdktrace.WithSyncer(exporter)
	}
	tp := sdktrace.NewTracerProvider(
		spanProcessor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)

	if o.setGlobals {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagator)
	}

	obs := &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName, trace.WithInstrumentationVersion(serviceVersion)),
		propagator:     propagator,
		log:            log,
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
	}

	log.InfoF("Observability initialized: service=%s, version=%s, endpoint=%s, sample_ratio=%.2f",
		serviceName, serviceVersion, endpoint, ratio)

	return obs, nil
}

// MustNew creates a new Observability instance and panics on error
func MustNew(log logger.LogManager, cfg *config.Config, opts ...Option) *Observability {
	obs, err := New(log, cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize observability: %v", err))
	}
	return obs
}

// StartSpan creates a new span for tracing
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and stops the exporter.
func (o *Observability) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.ErrorF("failed to shutdown tracer provider: %v", err)
		return err
	}

	o.log.InfoF("Observability shutdown completed")
	return nil
}

// GetTracer returns the tracer instance
func (o *Observability) GetTracer() trace.Tracer {
	return o.tracer
}

func (o *Observability) Propagator() propagation.TextMapPropagator {
	return o.propagator
}

var _ ObservabilityIface = (*Observability)(nil)

// TracerProvider exposes the provider for instrumentation such as GinMiddleware.
func (o *Observability) TracerProvider() trace.TracerProvider {
	return o.tracerProvider
}
