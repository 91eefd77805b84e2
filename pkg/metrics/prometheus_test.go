package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/fluenthttp/pkg/apperr"
)

func TestCollectorCountsAttempts(t *testing.T) {
	pc := NewPrometheusCollector("")

	pc.RequestStarted("GET")
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.inFlight))
	pc.RequestFinished("GET", 200, nil, 20*time.Millisecond)
	pc.RequestStarted("GET")
	pc.RequestFinished("GET", 404, apperr.New(apperr.ErrorCodeBadStatus).WithStatus(404), time.Millisecond)
	pc.RequestStarted("POST")
	pc.RequestFinished("POST", 0, errors.New("dial tcp: refused"), time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(pc.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.reqCount.WithLabelValues("GET", "200", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.reqCount.WithLabelValues("GET", "404", "bad_status")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.reqCount.WithLabelValues("POST", "none", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(pc.reqDurHist))
}

func TestCollectorCountsInterceptions(t *testing.T) {
	pc := NewPrometheusCollector("")
	pc.Intercepted("response")
	pc.Intercepted("response")
	assert.Equal(t, 2.0, testutil.ToFloat64(pc.interceptions.WithLabelValues("response")))
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pc := NewPrometheusCollector("")
	pc.RequestStarted("GET")
	pc.RequestFinished("GET", 200, nil, time.Millisecond)

	engine := gin.New()
	pc.RegisterMetricsEndpoint(engine)
	assert.Equal(t, "/metrics", pc.MetricsPath)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fluenthttp_requests_total{method="GET",outcome="ok",status="200"} 1`)
}
