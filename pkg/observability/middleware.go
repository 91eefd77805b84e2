package observability

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware traces incoming requests and continues traces propagated by
// fluenthttp clients. A nil provider or propagator uses the globals.
func GinMiddleware(serviceName string, tp trace.TracerProvider, prop propagation.TextMapPropagator) gin.HandlerFunc {
	var opts []otelgin.Option
	if tp != nil {
		opts = append(opts, otelgin.WithTracerProvider(tp))
	}
	if prop != nil {
		opts = append(opts, otelgin.WithPropagators(prop))
	}
	return otelgin.Middleware(serviceName, opts...)
}
