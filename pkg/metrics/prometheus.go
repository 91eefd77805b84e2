package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/milan604/fluenthttp/pkg/observability"
)

// PrometheusCollector records client attempts on a private registry.
type PrometheusCollector struct {
	reqCount      *prometheus.CounterVec
	reqDurHist    *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	interceptions *prometheus.CounterVec
	registry      *prometheus.Registry
	MetricsPath   string
}

// NewPrometheusCollector creates and registers the client metrics.
func NewPrometheusCollector(metricsPath string) *PrometheusCollector {
	reg := prometheus.NewRegistry()

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluenthttp_requests_total",
			Help: "Total number of request attempts",
		},
		[]string{"method", "status", "outcome"},
	)
	reqDurHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluenthttp_request_duration_seconds",
			Help:    "Histogram of transport time per attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fluenthttp_in_flight_requests",
		Help: "Current number of attempts waiting on the transport",
	})
	interceptions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluenthttp_interceptions_total",
			Help: "Requests handed to an interceptor",
		},
		[]string{"stage"},
	)

	reg.MustRegister(reqCount, reqDurHist, inFlight, interceptions)

	return &PrometheusCollector{
		reqCount:      reqCount,
		reqDurHist:    reqDurHist,
		inFlight:      inFlight,
		interceptions: interceptions,
		registry:      reg,
		MetricsPath:   metricsPath,
	}
}

func (pc *PrometheusCollector) RequestStarted(string) {
	pc.inFlight.Inc()
}

func (pc *PrometheusCollector) RequestFinished(method string, status int, err error, elapsed time.Duration) {
	pc.inFlight.Dec()
	pc.reqCount.WithLabelValues(method, observability.StatusLabel(status), observability.Outcome(err)).Inc()
	pc.reqDurHist.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (pc *PrometheusCollector) Intercepted(stage string) {
	pc.interceptions.WithLabelValues(stage).Inc()
}

// Registry exposes the collector's registry.
func (pc *PrometheusCollector) Registry() *prometheus.Registry {
	return pc.registry
}

// Handler serves the registry in the Prometheus text format.
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}

// RegisterMetricsEndpoint registers /metrics (or custom path) on Gin engine.
func (pc *PrometheusCollector) RegisterMetricsEndpoint(engine *gin.Engine) {
	if pc.MetricsPath == "" {
		pc.MetricsPath = "/metrics"
	}
	engine.GET(pc.MetricsPath, gin.WrapH(pc.Handler()))
}
