package observability

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/milan604/fluenthttp/pkg/apperr"
)

const meterName = "github.com/milan604/fluenthttp"

// MeterRecorder reports client attempts as OpenTelemetry metrics.
type MeterRecorder struct {
	requests      metric.Int64Counter
	duration      metric.Float64Histogram
	inFlight      metric.Int64UpDownCounter
	interceptions metric.Int64Counter
}

// NewMeterRecorder creates the instruments on meter, or on the global meter
// provider when meter is nil.
func NewMeterRecorder(meter metric.Meter) (*MeterRecorder, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	requests, err := meter.Int64Counter("fluenthttp.client.requests",
		metric.WithDescription("Completed request attempts"))
	if err != nil {
		return nil, fmt.Errorf("requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram("fluenthttp.client.duration",
		metric.WithDescription("Transport time per attempt"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("duration histogram: %w", err)
	}
	inFlight, err := meter.Int64UpDownCounter("fluenthttp.client.in_flight",
		metric.WithDescription("Attempts waiting on the transport"))
	if err != nil {
		return nil, fmt.Errorf("in-flight counter: %w", err)
	}
	interceptions, err := meter.Int64Counter("fluenthttp.client.interceptions",
		metric.WithDescription("Requests handed to an interceptor"))
	if err != nil {
		return nil, fmt.Errorf("interceptions counter: %w", err)
	}
	return &MeterRecorder{
		requests:      requests,
		duration:      duration,
		inFlight:      inFlight,
		interceptions: interceptions,
	}, nil
}

func (m *MeterRecorder) RequestStarted(method string) {
	m.inFlight.Add(context.Background(), 1, metric.WithAttributes(AttrHTTPMethod.String(method)))
}

func (m *MeterRecorder) RequestFinished(method string, status int, err error, elapsed time.Duration) {
	ctx := context.Background()
	m.inFlight.Add(ctx, -1, metric.WithAttributes(AttrHTTPMethod.String(method)))
	attrs := metric.WithAttributes(
		AttrHTTPMethod.String(method),
		AttrHTTPStatusCode.String(StatusLabel(status)),
		AttrErrorCode.String(Outcome(err)),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *MeterRecorder) Intercepted(stage string) {
	m.interceptions.Add(context.Background(), 1, metric.WithAttributes(AttrStage.String(stage)))
}

// StatusLabel renders a status for use as a metric label; 0 becomes "none".
func StatusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}

// Outcome is "ok" for a nil error, the AppError code when there is one, and
// "error" otherwise.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ae *apperr.AppError
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "error"
}
