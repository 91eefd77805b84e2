package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/fluenthttp/pkg/config"
	"github.com/milan604/fluenthttp/pkg/convert"
	fhttp "github.com/milan604/fluenthttp/pkg/http"
	"github.com/milan604/fluenthttp/pkg/logger"
	"github.com/milan604/fluenthttp/pkg/observability"
)

func TestClientTraceContinuesOnGinServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exp := tracetest.NewInMemoryExporter()
	obs, err := observability.New(logger.NewNop(), config.New(),
		observability.WithExporter(exp), observability.WithSyncExport(), observability.WithoutGlobals())
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	router := gin.New()
	router.Use(observability.GinMiddleware("orders", obs.TracerProvider(), obs.Propagator()))
	router.GET("/orders", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	srv := httptest.NewServer(router)
	defer srv.Close()

	client := fhttp.NewClient(
		fhttp.NewConfig(fhttp.WithMainExecutor(fhttp.Inline), fhttp.WithLoggingLevel(fhttp.LogNone)),
		fhttp.WithTracer(obs.GetTracer()),
		fhttp.WithPropagator(obs.Propagator()),
	)
	_, err = fhttp.Fetch[string](context.Background(), client.Get(srv.URL+"/orders"), convert.Text{})
	require.NoError(t, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	var server, clientSpan tracetest.SpanStub
	for _, s := range spans {
		if s.SpanKind == trace.SpanKindServer {
			server = s
		} else {
			clientSpan = s
		}
	}
	assert.Equal(t, clientSpan.SpanContext.TraceID(), server.SpanContext.TraceID())
	assert.Equal(t, clientSpan.SpanContext.SpanID(), server.Parent.SpanID())
}
