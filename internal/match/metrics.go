package match

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/datamatch/datamatch/internal/match"

// Metrics holds the instruments recorded by the match service.
type Metrics struct {
	requests   metric.Int64Counter
	candidates metric.Int64Histogram
	duration   metric.Float64Histogram
}

// NewMetrics creates match instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		"match.requests",
		metric.WithDescription("Number of match operations"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	candidates, err := meter.Int64Histogram(
		"match.candidates",
		metric.WithDescription("Candidates returned per match operation"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"match.duration",
		metric.WithDescription("Duration of match operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requests:   requests,
		candidates: candidates,
		duration:   duration,
	}, nil
}

// Record records one operation. A nil receiver records nothing.
func (m *Metrics) Record(ctx context.Context, operation string, returned int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("match.operation", operation)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Recorded after the request may have been cancelled.
	ctx = context.WithoutCancel(ctx)
	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	if err == nil {
		m.candidates.Record(ctx, int64(returned), metric.WithAttributes(attrs...))
	}
}
